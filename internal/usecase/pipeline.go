package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"GridPulse/internal/clean"
	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/join"
	"GridPulse/internal/repository"
	"GridPulse/internal/services/features"
	applogger "GridPulse/pkg/logger"

	"github.com/google/uuid"
)

// Stage names accepted by Pipeline.Run.
const (
	StageFetchPrices    = "fetch-prices"
	StageFetchEmissions = "fetch-emissions"
	StageCleanPrices    = "clean-prices"
	StageCleanEmissions = "clean-emissions"
	StageJoin           = "join"
	StageFeatures       = "features"
	StageLoad           = "load"
	StagePublish        = "publish"
	StageExport         = "export"
	StageArchive        = "archive"
	StageExplain        = "explain"
	StageReport         = "report"
	StageAll            = "all"
)

// ErrUnknownStage is returned for a stage name Run does not know.
var ErrUnknownStage = errors.New("unknown stage")

// Stages lists the runnable batch stages.
func Stages() []string {
	return []string{
		StageFetchPrices, StageFetchEmissions, StageCleanPrices, StageCleanEmissions,
		StageJoin, StageFeatures, StageLoad, StagePublish, StageExport, StageArchive,
		StageExplain, StageReport, StageAll,
	}
}

// FeatureExporter writes the feature table to a columnar file.
type FeatureExporter interface {
	Write(path string, recs []models.DailyFeatureRecord) error
}

// Archiver uploads produced files under run-scoped keys.
type Archiver interface {
	domrepo.ObjectStore
	Key(runDate time.Time, runID, file string) string
}

// CleanOptions carries the cleaner settings.
type CleanOptions struct {
	PriceRegions     []string
	EmissionsRegions []string
	PriceFloor       float64
}

// Pipeline runs the batch stages. Every stage reads its inputs from files
// and fully replaces its output file.
type Pipeline struct {
	paths     Paths
	runID     string
	now       func() time.Time
	prices    domsvc.Fetcher
	emissions domsvc.Fetcher
	clean     CleanOptions
	engine    *features.Engine

	sinks         []domrepo.Sink
	publisher     domrepo.EventPublisher
	exporter      FeatureExporter
	archive       Archiver
	summarizer    domsvc.Summarizer
	explainRegion models.Region
	metrics       domrepo.Metrics
	out           io.Writer
	l             *applogger.Logger
}

// PipelineOption configures optional collaborators.
type PipelineOption func(*Pipeline)

func WithSinks(sinks ...domrepo.Sink) PipelineOption {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

func WithPublisher(pub domrepo.EventPublisher) PipelineOption {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithExporter(e FeatureExporter) PipelineOption {
	return func(p *Pipeline) { p.exporter = e }
}

func WithArchive(a Archiver) PipelineOption {
	return func(p *Pipeline) { p.archive = a }
}

// WithSummarizer enables the explain stage for region.
func WithSummarizer(s domsvc.Summarizer, region models.Region) PipelineOption {
	return func(p *Pipeline) {
		p.summarizer = s
		p.explainRegion = region
	}
}

func WithMetrics(m domrepo.Metrics) PipelineOption {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithOutput sets where the report and explanations are printed.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.out = w }
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func WithRunID(id string) PipelineOption {
	return func(p *Pipeline) { p.runID = id }
}

func NewPipeline(
	paths Paths,
	prices, emissions domsvc.Fetcher,
	cleanOpts CleanOptions,
	engine *features.Engine,
	l *applogger.Logger,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		paths:     paths,
		runID:     uuid.NewString(),
		now:       time.Now,
		prices:    prices,
		emissions: emissions,
		clean:     cleanOpts,
		engine:    engine,
		metrics:   nopMetrics{},
		out:       io.Discard,
		l:         l,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.l == nil {
		p.l = applogger.Nop()
	}
	p.l = p.l.With(applogger.String("run_id", p.runID))
	return p
}

// RunID identifies this pipeline invocation.
func (p *Pipeline) RunID() string { return p.runID }

// Paths returns the resolved stage files.
func (p *Pipeline) Paths() Paths { return p.paths }

// Run executes one named stage.
func (p *Pipeline) Run(ctx context.Context, stage string) error {
	fn, ok := p.stageFuncs()[stage]
	if !ok {
		return fmt.Errorf("%w %q (valid: %s)", ErrUnknownStage, stage, strings.Join(Stages(), ", "))
	}
	return fn(ctx)
}

func (p *Pipeline) stageFuncs() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		StageFetchPrices:    p.timed(StageFetchPrices, p.fetchPrices),
		StageFetchEmissions: p.timed(StageFetchEmissions, p.fetchEmissions),
		StageCleanPrices:    p.timed(StageCleanPrices, p.cleanPrices),
		StageCleanEmissions: p.timed(StageCleanEmissions, p.cleanEmissions),
		StageJoin:           p.timed(StageJoin, p.join),
		StageFeatures:       p.timed(StageFeatures, p.features),
		StageLoad:           p.timed(StageLoad, p.load),
		StagePublish:        p.timed(StagePublish, p.publish),
		StageExport:         p.timed(StageExport, p.export),
		StageArchive:        p.timed(StageArchive, p.archiveOutputs),
		StageExplain:        p.timed(StageExplain, p.explain),
		StageReport:         p.timed(StageReport, p.report),
		StageAll:            p.all,
	}
}

// all runs the core stages, then every configured optional stage.
func (p *Pipeline) all(ctx context.Context) error {
	stages := []string{
		StageFetchPrices, StageFetchEmissions, StageCleanPrices, StageCleanEmissions,
		StageJoin, StageFeatures, StageReport,
	}
	if len(p.sinks) > 0 {
		stages = append(stages, StageLoad)
	}
	if p.publisher != nil {
		stages = append(stages, StagePublish)
	}
	if p.exporter != nil {
		stages = append(stages, StageExport)
	}
	if p.summarizer != nil {
		stages = append(stages, StageExplain)
	}
	if p.archive != nil {
		stages = append(stages, StageArchive)
	}

	funcs := p.stageFuncs()
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := funcs[s](ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) timed(stage string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		start := time.Now()
		p.l.Info("stage started", applogger.String("stage", stage))
		err := fn(ctx)
		elapsed := time.Since(start)
		p.metrics.RecordStage(stage, elapsed.Seconds(), err)
		if err != nil {
			p.l.Error("stage failed",
				applogger.String("stage", stage),
				applogger.Error(err),
				applogger.Duration("duration_ms", elapsed),
			)
			return fmt.Errorf("%s: %w", stage, err)
		}
		p.l.Info("stage finished", applogger.String("stage", stage), applogger.Duration("duration_ms", elapsed))
		return nil
	}
}

func (p *Pipeline) fetchPrices(ctx context.Context) error {
	return p.fetch(ctx, StageFetchPrices, p.prices, p.paths.RawPrices())
}

func (p *Pipeline) fetchEmissions(ctx context.Context) error {
	return p.fetch(ctx, StageFetchEmissions, p.emissions, p.paths.RawEmissions())
}

func (p *Pipeline) fetch(ctx context.Context, stage string, f domsvc.Fetcher, path string) error {
	if f == nil {
		return fmt.Errorf("no fetcher configured")
	}
	frame, err := f.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := repository.WriteFrame(path, frame); err != nil {
		return err
	}
	p.metrics.RecordRows(stage, "out", frame.Len())
	p.l.Info("raw file saved", applogger.String("path", path), applogger.Int("rows_out", frame.Len()))
	return nil
}

func (p *Pipeline) cleanPrices(context.Context) error {
	in, out := p.paths.RawPrices(), p.paths.CleanPrices()
	raw, err := repository.ReadFrame(in)
	if err != nil {
		return err
	}
	recs, stats, err := clean.Prices(raw, in, clean.PriceOptions{Regions: p.clean.PriceRegions, Floor: p.clean.PriceFloor})
	if err != nil {
		return err
	}
	if err := repository.WriteFrame(out, repository.EncodePrices(recs)); err != nil {
		return err
	}
	p.logCleaned(StageCleanPrices, "prices cleaned", out, stats)
	return nil
}

func (p *Pipeline) cleanEmissions(context.Context) error {
	in, out := p.paths.RawEmissions(), p.paths.CleanEmissions()
	raw, err := repository.ReadFrame(in)
	if err != nil {
		return err
	}
	recs, stats, err := clean.Emissions(raw, in, clean.EmissionsOptions{Regions: p.clean.EmissionsRegions})
	if err != nil {
		return err
	}
	if err := repository.WriteFrame(out, repository.EncodeEmissions(recs)); err != nil {
		return err
	}
	p.logCleaned(StageCleanEmissions, "emissions cleaned", out, stats)
	return nil
}

func (p *Pipeline) logCleaned(stage, msg, path string, s clean.Stats) {
	p.metrics.RecordRows(stage, "in", s.RowsIn)
	p.metrics.RecordRows(stage, "out", s.RowsOut)
	p.l.Info(msg,
		applogger.String("path", path),
		applogger.Int("rows_in", s.RowsIn),
		applogger.Int("rows_out", s.RowsOut),
		applogger.Int("dropped", s.Dropped()),
	)
}

func (p *Pipeline) join(context.Context) error {
	pf, err := repository.ReadFrame(p.paths.CleanPrices())
	if err != nil {
		return err
	}
	prices, err := repository.DecodePrices(pf, p.paths.CleanPrices())
	if err != nil {
		return err
	}
	ef, err := repository.ReadFrame(p.paths.CleanEmissions())
	if err != nil {
		return err
	}
	emissions, err := repository.DecodeEmissions(ef, p.paths.CleanEmissions())
	if err != nil {
		return err
	}

	joined := join.PriceEmissions(prices, emissions)
	if err := repository.WriteFrame(p.paths.Joined(), repository.EncodeJoined(joined)); err != nil {
		return err
	}
	p.metrics.RecordRows(StageJoin, "in", len(prices))
	p.metrics.RecordRows(StageJoin, "out", len(joined))
	p.l.Info("joined table saved",
		applogger.String("path", p.paths.Joined()),
		applogger.Int("rows_in", len(prices)),
		applogger.Int("rows_out", len(joined)),
		applogger.Int("matched", join.Matched(joined)),
	)
	return nil
}

func (p *Pipeline) features(context.Context) error {
	sum, _, err := p.engine.RunFile(p.paths.Joined(), p.paths.Features(), p.paths.Stats())
	if err != nil {
		return err
	}
	p.metrics.RecordRows(StageFeatures, "in", sum.RowsIn)
	p.metrics.RecordRows(StageFeatures, "out", sum.RowsOut)
	for region, n := range sum.Anomalies {
		p.metrics.RecordAnomalies(string(region), n)
	}
	return nil
}

// loadTargets maps each loadable file to its table, in load order.
func (p *Pipeline) loadTargets() [][2]string {
	return [][2]string{
		{p.paths.CleanPrices(), repository.TablePrices},
		{p.paths.CleanEmissions(), repository.TableEmissions},
		{p.paths.Joined(), repository.TableJoined},
		{p.paths.Features(), repository.TableFeatures},
		{p.paths.Stats(), repository.TableStats},
	}
}

// load replaces each table in every sink. Files that do not exist yet are skipped.
func (p *Pipeline) load(ctx context.Context) error {
	if len(p.sinks) == 0 {
		p.l.Warn("no sinks configured, nothing to load")
		return nil
	}
	for _, target := range p.loadTargets() {
		path, name := target[0], target[1]
		frame, err := repository.ReadFrame(path)
		if errors.Is(err, os.ErrNotExist) {
			p.l.Warn("file not found, skipping table", applogger.String("path", path), applogger.String("table", name))
			continue
		}
		if err != nil {
			return err
		}
		table, err := repository.TableFromFrame(name, frame)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, s := range p.sinks {
			if err := s.Write(ctx, table); err != nil {
				return fmt.Errorf("%s sink: %w", s.Name(), err)
			}
			p.l.Info("table loaded",
				applogger.String("sink", s.Name()),
				applogger.String("table", name),
				applogger.Int("rows", len(table.Rows)),
			)
		}
		p.metrics.RecordRows(StageLoad, "out", len(table.Rows))
	}
	return nil
}

func (p *Pipeline) readFeatures() ([]models.DailyFeatureRecord, error) {
	frame, err := repository.ReadFrame(p.paths.Features())
	if err != nil {
		return nil, err
	}
	return repository.DecodeFeatures(frame, p.paths.Features())
}

func (p *Pipeline) publish(ctx context.Context) error {
	if p.publisher == nil {
		p.l.Warn("no event publisher configured, skipping")
		return nil
	}
	recs, err := p.readFeatures()
	if err != nil {
		return err
	}
	events := repository.AnomalyEvents(p.runID, recs, p.now().UTC())
	if len(events) == 0 {
		p.l.Info("no anomalous days to publish")
		return nil
	}
	if err := p.publisher.PublishAnomalies(ctx, events); err != nil {
		return err
	}
	p.metrics.RecordRows(StagePublish, "out", len(events))
	p.l.Info("anomaly events published", applogger.Int("events", len(events)))
	return nil
}

func (p *Pipeline) export(context.Context) error {
	if p.exporter == nil {
		p.l.Warn("parquet export disabled, skipping")
		return nil
	}
	recs, err := p.readFeatures()
	if err != nil {
		return err
	}
	if err := p.exporter.Write(p.paths.FeaturesParquet(), recs); err != nil {
		return err
	}
	p.l.Info("features exported", applogger.String("path", p.paths.FeaturesParquet()), applogger.Int("rows", len(recs)))
	return nil
}

// archiveOutputs uploads every stage output that exists.
func (p *Pipeline) archiveOutputs(ctx context.Context) error {
	if p.archive == nil {
		p.l.Warn("object archive disabled, skipping")
		return nil
	}
	runDate := p.now().UTC()
	files := append(p.paths.Outputs(), p.paths.Explanation(p.explainRegion))
	uploaded := 0
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		key := p.archive.Key(runDate, p.runID, filepath.Base(path))
		if err := p.archive.Upload(ctx, key, path); err != nil {
			return err
		}
		uploaded++
		p.l.Debug("file archived", applogger.String("key", key))
	}
	p.metrics.RecordRows(StageArchive, "out", uploaded)
	p.l.Info("outputs archived", applogger.Int("files", uploaded))
	return nil
}

func (p *Pipeline) explain(ctx context.Context) error {
	if p.summarizer == nil {
		return fmt.Errorf("explainer disabled (set explain.enabled and GEMINI_API_KEY)")
	}
	frame, err := repository.ReadFrame(p.paths.Joined())
	if err != nil {
		return err
	}
	rows, err := repository.DecodeJoined(frame, p.paths.Joined())
	if err != nil {
		return err
	}
	text, err := p.summarizer.Summarize(ctx, p.explainRegion, rows)
	if err != nil {
		return err
	}

	path := p.paths.Explanation(p.explainRegion)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err = fmt.Fprintf(p.out, "%s\n", text)
	return err
}

// readStats returns nil without error when the stats table has not been
// produced, so a report can still be rendered from an older feature file.
func (p *Pipeline) readStats() ([]models.DailyStatsRecord, error) {
	frame, err := repository.ReadFrame(p.paths.Stats())
	if errors.Is(err, os.ErrNotExist) {
		p.l.Warn("stats table not found, report limited to features", applogger.String("path", p.paths.Stats()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return repository.DecodeStats(frame, p.paths.Stats())
}

func (p *Pipeline) report(context.Context) error {
	recs, err := p.readFeatures()
	if err != nil {
		return err
	}
	stats, err := p.readStats()
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := WriteReport(&sb, recs, stats); err != nil {
		return err
	}
	path := p.paths.Report()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err = io.WriteString(p.out, sb.String())
	return err
}

// Close releases sinks and the publisher.
func (p *Pipeline) Close() error {
	var errs []error
	for _, s := range p.sinks {
		errs = append(errs, s.Close())
	}
	if p.publisher != nil {
		errs = append(errs, p.publisher.Close())
	}
	return errors.Join(errs...)
}

type nopMetrics struct{}

func (nopMetrics) RecordStage(string, float64, error) {}
func (nopMetrics) RecordRows(string, string, int)     {}
func (nopMetrics) RecordAnomalies(string, int)        {}
