package ingest

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"GridPulse/internal/domain/models"
	pkghttp "GridPulse/pkg/http"
	applogger "GridPulse/pkg/logger"
)

// Raw Public_Prices column names, kept as published by AEMO.
var PriceRawColumns = []string{
	"SETTLEMENTDATE", "REGIONID", "RRP", "TOTALDEMAND", "DEMANDFORECAST",
	"DISPATCHABLEGENERATION", "NETINTERCHANGE", "INITIALSUPPLY", "MARKETSUSPENDEDFLAG",
}

// Positions of the wanted fields in a D,DREGION row.
const (
	dregionSettlementDate  = 4
	dregionRegionID        = 6
	dregionRRP             = 8
	dregionMarketSuspended = 12
	dregionTotalDemand     = 13
	dregionDemandForecast  = 14
	dregionDispatchable    = 15
	dregionNetInterchange  = 17
	dregionInitialSupply   = 70
	dregionMinFields       = dregionInitialSupply + 1
)

// PriceFetcher downloads every Public_Prices archive listed in the current
// NEMWeb directory and extracts the regional dispatch price rows.
type PriceFetcher struct {
	client   *pkghttp.Client
	indexURL string
	l        *applogger.Logger
}

func NewPriceFetcher(client *pkghttp.Client, indexURL string, l *applogger.Logger) *PriceFetcher {
	if l == nil {
		l = applogger.Nop()
	}
	return &PriceFetcher{client: client, indexURL: indexURL, l: l}
}

// Fetch returns the combined D,DREGION rows of all archives, in index order.
func (f *PriceFetcher) Fetch(ctx context.Context) (*models.Frame, error) {
	start := time.Now()
	links, err := listIndex(ctx, f.client, f.indexURL, isPublicPricesZip)
	if err != nil {
		return nil, err
	}
	f.l.Info("public prices index listed", applogger.String("url", f.indexURL), applogger.Int("files", len(links)))

	var rows [][]string
	for _, link := range links {
		body, err := download(ctx, f.client, link)
		if err != nil {
			return nil, err
		}
		part, err := readDRegionZip(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", link, err)
		}
		f.l.Debug("public prices archive read", applogger.String("file", path.Base(link)), applogger.Int("rows", len(part)))
		rows = append(rows, part...)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("public prices: %w", ErrNoRows)
	}

	f.l.Info("public prices fetched",
		applogger.Int("files", len(links)),
		applogger.Int("rows_out", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewFrame(append([]string{}, PriceRawColumns...), rows), nil
}

func isPublicPricesZip(href string) bool {
	return strings.Contains(strings.ToUpper(href), "PUBLIC_PRICES") && hasSuffixFold(href, ".zip")
}

// readDRegionZip extracts D,DREGION rows from every CSV member of an archive.
func readDRegionZip(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var rows [][]string
	members := 0
	for _, zf := range zr.File {
		if !hasSuffixFold(zf.Name, ".csv") {
			continue
		}
		members++
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", zf.Name, err)
		}
		part, err := scanDRegion(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", zf.Name, err)
		}
		rows = append(rows, part...)
	}
	if members == 0 {
		return nil, fmt.Errorf("archive contains no CSV files")
	}
	return rows, nil
}

func scanDRegion(r io.Reader) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "D,DREGION") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < dregionMinFields {
			continue
		}
		rows = append(rows, []string{
			parts[dregionSettlementDate],
			parts[dregionRegionID],
			parts[dregionRRP],
			parts[dregionTotalDemand],
			parts[dregionDemandForecast],
			parts[dregionDispatchable],
			parts[dregionNetInterchange],
			parts[dregionInitialSupply],
			parts[dregionMarketSuspended],
		})
	}
	return rows, sc.Err()
}
