package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("| Company | Position |"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept": "text/plain"}
	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, "| Company | Position |", result.Body)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.ContentType, "text/plain")
	assert.False(t, result.Truncated)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, u := range []string{"not-a-valid-url", "ftp://example.com/file"} {
		_, err := URL(context.Background(), u, nil)
		require.Error(t, err)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_RequireHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer server.Close()

	f := &HTTPFetcher{}
	_, err := f.Fetch(context.Background(), server.URL, &Options{RequireHTML: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotHTML))
}

func TestURL_DeclaredLengthTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := strings.Repeat("a", 2048)
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, &Options{MaxBodyBytes: 1024})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestURL_TruncatesUndeclaredBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		flusher := w.(http.Flusher)
		for i := 0; i < 4; i++ {
			_, _ = w.Write([]byte(strings.Repeat("b", 512)))
			flusher.Flush()
		}
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, &Options{MaxBodyBytes: 1000, RequireHTML: true})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Body, 1000)
}

func TestURL_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := URL(context.Background(), server.URL, &Options{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html"))
	assert.True(t, IsHTML("text/html; charset=UTF-8"))
	assert.True(t, IsHTML("TEXT/HTML"))
	assert.False(t, IsHTML("application/json"))
	assert.False(t, IsHTML(""))
}

func TestNewFetcher(t *testing.T) {
	assert.IsType(t, &HTTPFetcher{}, NewFetcher(false))
	assert.IsType(t, &BrowserFetcher{}, NewFetcher(true))
}
