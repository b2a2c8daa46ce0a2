package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "GridPulse-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetries(3, time.Millisecond), WithUserAgent("GridPulse-test"))
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, &out))
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSendAndParseDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithRetries(3, time.Millisecond))
	err := c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "gone", se.Body)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSendAndParseRawBytesAndJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("raw"))
	}))
	defer srv.Close()

	var body []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"q": {"v"}},
		Body:        map[string]int{"a": 1},
	}, &body)
	require.NoError(t, err)
	assert.Equal(t, "raw", string(body))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := NewClient(WithRateLimit(0.001, 1))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.SendAndParse(ctx, &RequestOptions{URL: srv.URL}, nil))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary(&StatusError{StatusCode: 429}))
	assert.True(t, IsTemporary(&StatusError{StatusCode: 502}))
	assert.False(t, IsTemporary(&StatusError{StatusCode: 400}))
	assert.False(t, IsTemporary(context.Canceled))
	assert.False(t, IsTemporary(nil))
}
