package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	xhttp "GridPulse/pkg/http"
)

// httpServiceBase centralizes JSON POSTs against the model API.
type httpServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPServiceBase(baseURL string, timeout time.Duration) *httpServiceBase {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// postJSON posts payload to path under baseURL and decodes the JSON reply into dest.
func (b *httpServiceBase) postJSON(ctx context.Context, path string, headers map[string]string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("explain http client not initialized")
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: h,
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// postJSONWithRetry retries transient failures up to attempts times.
func (b *httpServiceBase) postJSONWithRetry(ctx context.Context, path string, headers map[string]string, payload, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.postJSON(ctx, path, headers, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.postJSON(ctx, path, headers, payload, dest)
		if err == nil || !xhttp.IsTemporary(err) {
			return err
		}
		if i == attempts {
			break
		}
		// simple backoff
		select {
		case <-time.After(time.Duration(i) * 250 * time.Millisecond):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
	}
	return err
}
