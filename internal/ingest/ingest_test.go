package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	pkghttp "GridPulse/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dregionRow builds a D,DREGION line with the fields the fetcher reads set.
func dregionRow(ts, region, rrp string) string {
	parts := make([]string, dregionMinFields)
	parts[0], parts[1], parts[2], parts[3] = "D", "DREGION", "", "3"
	parts[dregionSettlementDate] = `"` + ts + `"`
	parts[dregionRegionID] = region
	parts[dregionRRP] = rrp
	parts[dregionMarketSuspended] = "0"
	parts[dregionTotalDemand] = "7000.5"
	parts[dregionDemandForecast] = "12"
	parts[dregionDispatchable] = "6900"
	parts[dregionNetInterchange] = "-100"
	parts[dregionInitialSupply] = "6950"
	return strings.Join(parts, ",")
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newClient() *pkghttp.Client {
	return pkghttp.NewClient(pkghttp.WithTimeout(5*time.Second), pkghttp.WithRetries(1, time.Millisecond))
}

func TestPriceFetcherCombinesArchivesInIndexOrder(t *testing.T) {
	first := zipOf(t, map[string]string{
		"PUBLIC_PRICES_202501010000.CSV": strings.Join([]string{
			"C,NEMP.WORLD,PUBLIC_PRICES",
			"I,DREGION,,3,SETTLEMENTDATE,RUNNO,REGIONID",
			dregionRow("2025/01/01 00:05:00", "NSW1", "55.1"),
			"D,DREGION,,3,short,row",
			"D,DREGIONSUM,ignored",
		}, "\n"),
	})
	second := zipOf(t, map[string]string{
		"PUBLIC_PRICES_202501020000.csv": dregionRow("2025/01/02 00:05:00", "SA1", "-20"),
		"README.txt":                     "not a csv",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/Public_Prices/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><pre>
<a href="/">[To Parent Directory]</a>
<a href="/Public_Prices/PUBLIC_PRICES_202501010000_1.zip">one</a>
<a href="PUBLIC_PRICES_202501020000_2.zip">two</a>
<a href="OTHER_REPORT.zip">other</a>
</pre></body></html>`)
	})
	mux.HandleFunc("/Public_Prices/PUBLIC_PRICES_202501010000_1.zip", func(w http.ResponseWriter, r *http.Request) { w.Write(first) })
	mux.HandleFunc("/Public_Prices/PUBLIC_PRICES_202501020000_2.zip", func(w http.ResponseWriter, r *http.Request) { w.Write(second) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	frame, err := NewPriceFetcher(newClient(), srv.URL+"/Public_Prices/", nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PriceRawColumns, frame.Header)
	require.Equal(t, 2, frame.Len())

	assert.Equal(t, []string{`"2025/01/01 00:05:00"`, "NSW1", "55.1", "7000.5", "12", "6900", "-100", "6950", "0"}, frame.Rows[0])
	assert.Equal(t, "SA1", frame.Cell(frame.Rows[1], "REGIONID"))
}

func TestPriceFetcherNoFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="nothing.txt">x</a>`)
	}))
	defer srv.Close()

	_, err := NewPriceFetcher(newClient(), srv.URL+"/", nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func TestPriceFetcherNoRows(t *testing.T) {
	empty := zipOf(t, map[string]string{"a.csv": "C,header\n"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".zip") {
			w.Write(empty)
			return
		}
		fmt.Fprint(w, `<a href="PUBLIC_PRICES_1.zip">x</a>`)
	}))
	defer srv.Close()

	_, err := NewPriceFetcher(newClient(), srv.URL+"/", nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestEmissionsFetcherPicksLatestAndParsesBothDelimiters(t *testing.T) {
	body := strings.Join([]string{
		"C,NEMP.WORLD,IBEI",
		"D,IBEI,PUBLISHING,1,2025,1,2025/01/01 00:00:00,NSW1,100,80,0.8,extra",
		"D\tIBEI\tPUBLISHING\t1\t2025\t1\t2025/01/01 00:00:00\tNEM\t100\t70\t0.7",
		"D,IBEI,PUBLISHING,1,2025,1,2025/01/01 00:00:00,SA1",
	}, "\r\n")

	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(strings.ToLower(r.URL.Path), ".csv") {
			requested = r.URL.Path
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `<A HREF="IBEI_SUMMARY_RESULTS_2024.CSV">2024</A>
<a href="IBEI_SUMMARY_RESULTS_2025.CSV">2025</a>
<a href="IBEI_SUMMARY_RESULTS_2023.CSV">2023</a>`)
	}))
	defer srv.Close()

	frame, err := NewEmissionsFetcher(newClient(), srv.URL+"/IBEI/", nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/IBEI/IBEI_SUMMARY_RESULTS_2025.CSV", requested)
	assert.Equal(t, EmissionsRawColumns, frame.Header)
	assert.Equal(t, [][]string{
		{"2025/01/01 00:00:00", "NSW1", "0.8"},
		{"2025/01/01 00:00:00", "NEM", "0.7"},
	}, frame.Rows)
}

func TestExtractLinksResolvesRelative(t *testing.T) {
	base, _ := url.Parse("https://nemweb.com.au/Reports/Current/IBEI/")
	links, err := extractLinks(strings.NewReader(`<a href="a.csv"></a><a href="/x/b.csv"/><a name="n">`), base,
		func(h string) bool { return hasSuffixFold(h, ".csv") })
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://nemweb.com.au/Reports/Current/IBEI/a.csv",
		"https://nemweb.com.au/x/b.csv",
	}, links)
}
