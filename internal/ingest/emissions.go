package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"GridPulse/internal/domain/models"
	pkghttp "GridPulse/pkg/http"
	applogger "GridPulse/pkg/logger"
)

// Raw IBEI column names; the adjusted intensity index is published as EMISSIONS_INTENSITY.
var EmissionsRawColumns = []string{"SETTLEMENTDATE", "REGIONID", "EMISSIONS_INTENSITY"}

const (
	ibeiSettlementDate = 6
	ibeiRegionID       = 7
	ibeiIntensity      = 10
	ibeiMinFields      = ibeiIntensity + 1
)

// EmissionsFetcher downloads the latest IBEI summary file.
type EmissionsFetcher struct {
	client   *pkghttp.Client
	indexURL string
	l        *applogger.Logger
}

func NewEmissionsFetcher(client *pkghttp.Client, indexURL string, l *applogger.Logger) *EmissionsFetcher {
	if l == nil {
		l = applogger.Nop()
	}
	return &EmissionsFetcher{client: client, indexURL: indexURL, l: l}
}

// Fetch resolves the lexicographically last CSV in the index and extracts its D,IBEI rows.
func (f *EmissionsFetcher) Fetch(ctx context.Context) (*models.Frame, error) {
	start := time.Now()
	links, err := listIndex(ctx, f.client, f.indexURL, func(href string) bool { return hasSuffixFold(href, ".csv") })
	if err != nil {
		return nil, err
	}
	sort.Strings(links)
	latest := links[len(links)-1]
	f.l.Info("latest IBEI file resolved", applogger.String("url", latest))

	body, err := download(ctx, f.client, latest)
	if err != nil {
		return nil, err
	}
	rows, err := scanIBEI(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", latest, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ibei %s: %w", latest, ErrNoRows)
	}

	f.l.Info("ibei emissions fetched",
		applogger.Int("rows_out", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewFrame(append([]string{}, EmissionsRawColumns...), rows), nil
}

// scanIBEI keeps D,IBEI data rows; files may be comma or tab separated.
func scanIBEI(data []byte) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "D,IBEI") && !strings.HasPrefix(line, "D\tIBEI") {
			continue
		}
		delim := ","
		if strings.Contains(line, "\t") {
			delim = "\t"
		}
		parts := strings.Split(line, delim)
		if len(parts) < ibeiMinFields {
			continue
		}
		rows = append(rows, []string{
			fieldOf(parts, ibeiSettlementDate),
			fieldOf(parts, ibeiRegionID),
			fieldOf(parts, ibeiIntensity),
		})
	}
	return rows, sc.Err()
}
