package di

import (
	"context"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/ingest"
	internalrepo "GridPulse/internal/repository"
	"GridPulse/internal/services/explain"
	"GridPulse/internal/services/features"
	"GridPulse/internal/usecase"
	"GridPulse/pkg/cache"
	pkgch "GridPulse/pkg/clickhouse"
	"GridPulse/pkg/config"
	pkghttp "GridPulse/pkg/http"
	pkgkafka "GridPulse/pkg/kafka"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/metrics"
	"GridPulse/pkg/server"

	"github.com/google/uuid"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideHTTPClient creates the rate-limited NEMWeb client.
func ProvideHTTPClient(cfg *config.Config) *pkghttp.Client {
	return pkghttp.NewClient(
		pkghttp.WithTimeout(cfg.Ingest.Timeout),
		pkghttp.WithRetries(cfg.Ingest.Retries, time.Second),
		pkghttp.WithRateLimit(cfg.Ingest.RequestsPerSecond, cfg.Ingest.Burst),
		pkghttp.WithUserAgent(cfg.Ingest.UserAgent),
	)
}

func ProvidePriceFetcher(cfg *config.Config, client *pkghttp.Client, l *applogger.Logger) *ingest.PriceFetcher {
	return ingest.NewPriceFetcher(client, cfg.Ingest.PricesIndexURL, l)
}

func ProvideEmissionsFetcher(cfg *config.Config, client *pkghttp.Client, l *applogger.Logger) *ingest.EmissionsFetcher {
	return ingest.NewEmissionsFetcher(client, cfg.Ingest.EmissionsIndexURL, l)
}

// ProvideFeatureEngine creates the daily feature engine.
func ProvideFeatureEngine(cfg *config.Config, l *applogger.Logger) (*features.Engine, error) {
	return features.NewEngine(features.Config{
		Window:          cfg.Features.Window,
		MinPeriods:      cfg.Features.MinPeriods,
		Threshold:       cfg.Features.AnomalyThreshold,
		TrendMinPeriods: cfg.Features.TrendMinPeriods,
	}, l)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config, rec *metrics.Recorder) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAutoCreateTopic(true),
		pkgkafka.WithMetrics(rec.Registry()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache returns Redis when enabled, otherwise a process-local cache.
func ProvideCache(cfg *config.Config) cache.Service {
	if cfg.Redis.Enabled {
		return cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(256))
}

// ProvideSummarizer creates the Gemini explainer, or nil when disabled.
func ProvideSummarizer(cfg *config.Config, c cache.Service, l *applogger.Logger) domsvc.Summarizer {
	if !cfg.Explain.Enabled {
		return nil
	}
	gen := explain.NewGeminiClient(explain.GeminiConfig{
		BaseURL:  cfg.Explain.BaseURL,
		Model:    cfg.Explain.Model,
		APIKey:   cfg.Explain.APIKey,
		Timeout:  cfg.Explain.Timeout,
		Attempts: cfg.Explain.Retries + 1,
	})
	return explain.NewExplainer(gen,
		explain.WithCache(c, cfg.Explain.CacheTTL),
		explain.WithRows(cfg.Explain.Rows),
		explain.WithLogger(l),
	)
}

// ProvideS3Archive creates the object archive, or nil when disabled.
func ProvideS3Archive(cfg *config.Config) (*internalrepo.S3Archive, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := internalrepo.NewS3Client(ctx, internalrepo.S3Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		Prefix:    cfg.S3.Prefix,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return internalrepo.NewS3Archive(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
}

// ProvidePipeline assembles the batch pipeline with every enabled sink.
func ProvidePipeline(
	cfg *config.Config,
	l *applogger.Logger,
	rec *metrics.Recorder,
	prices *ingest.PriceFetcher,
	emissions *ingest.EmissionsFetcher,
	engine *features.Engine,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	archive *internalrepo.S3Archive,
	summarizer domsvc.Summarizer,
) *usecase.Pipeline {
	runID := uuid.NewString()
	opts := []usecase.PipelineOption{usecase.WithRunID(runID), usecase.WithMetrics(rec)}

	if ch != nil {
		opts = append(opts, usecase.WithSinks(
			internalrepo.NewClickHouseSink(ch, ch.Database(), runID, cfg.ClickHouse.BatchSize, l),
		))
	}
	if producer != nil {
		opts = append(opts, usecase.WithPublisher(internalrepo.NewKafkaAnomalyPublisher(producer, cfg.Kafka.Topic)))
	}
	if cfg.Parquet.Enabled {
		opts = append(opts, usecase.WithExporter(internalrepo.NewParquetFeatureWriter()))
	}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	if summarizer != nil {
		opts = append(opts, usecase.WithSummarizer(summarizer, models.Region(cfg.Explain.Region)))
	}

	return usecase.NewPipeline(
		usecase.Paths{RawDir: cfg.Paths.RawDir, ProcessedDir: cfg.Paths.ProcessedDir},
		prices, emissions,
		usecase.CleanOptions{
			PriceRegions:     cfg.Clean.PriceRegions,
			EmissionsRegions: cfg.Clean.EmissionsRegions,
			PriceFloor:       cfg.Clean.PriceFloor,
		},
		engine, l, opts...,
	)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder, pipeline *usecase.Pipeline, ch *pkgch.Client) *server.App {
	return server.New(cfg, l, rec, pipeline, ch)
}
