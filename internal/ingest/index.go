package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	pkghttp "GridPulse/pkg/http"

	"golang.org/x/net/html"
)

var (
	// ErrNoFiles is returned when a directory index lists no matching files.
	ErrNoFiles = errors.New("no matching files in index")
	// ErrNoRows is returned when downloaded files contain no data rows.
	ErrNoRows = errors.New("no data rows found")
)

// extractLinks returns the href of every anchor in the page, resolved
// against base, in document order, keeping those accepted by match.
func extractLinks(body io.Reader, base *url.URL, match func(href string) bool) ([]string, error) {
	var out []string
	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("parse index: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href := strings.TrimSpace(string(val))
					if match(href) {
						ref, err := url.Parse(href)
						if err == nil {
							out = append(out, base.ResolveReference(ref).String())
						}
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// listIndex downloads a NEMWeb directory listing and extracts matching links.
func listIndex(ctx context.Context, client *pkghttp.Client, indexURL string, match func(string) bool) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("index url: %w", err)
	}

	var body []byte
	if err := client.SendAndParse(ctx, &pkghttp.RequestOptions{Method: pkghttp.MethodGet, URL: indexURL}, &body); err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", indexURL, err)
	}

	links, err := extractLinks(bytes.NewReader(body), base, match)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%s: %w", indexURL, ErrNoFiles)
	}
	return links, nil
}

func download(ctx context.Context, client *pkghttp.Client, fileURL string) ([]byte, error) {
	var body []byte
	if err := client.SendAndParse(ctx, &pkghttp.RequestOptions{Method: pkghttp.MethodGet, URL: fileURL}, &body); err != nil {
		return nil, fmt.Errorf("download %s: %w", fileURL, err)
	}
	return body, nil
}

// fieldOf returns parts[i] or "" when the row is short.
func fieldOf(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// hasSuffixFold reports whether s ends with suffix, ignoring case.
func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
