package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curation-cli/internal/resilience"
)

func TestHTTPFetcherDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	rc, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestHTTPFetcherRetriesServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	rc, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, 2, calls)
}

func TestHTTPFetcherPermanentStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestForRef(t *testing.T) {
	f, err := ForRef("ftp://host/file.json", Options{})
	require.NoError(t, err)
	assert.IsType(t, &FTPFetcher{}, f)

	f, err = ForRef("https://host/file.json", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	f, err = ForRef("/local/path.json", Options{})
	require.NoError(t, err)
	assert.IsType(t, &FileFetcher{}, f)

	_, err = ForRef("s3://bucket/key", Options{})
	assert.Error(t, err)
}

func TestParseFTPURL(t *testing.T) {
	host, path, err := parseFTPURL("ftp://example.com/drops/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "example.com:21", host)
	assert.Equal(t, "/drops/manifest.json", path)

	host, _, err = parseFTPURL("ftp://example.com:2121/x")
	require.NoError(t, err)
	assert.Equal(t, "example.com:2121", host)

	_, _, err = parseFTPURL("http://example.com/x")
	assert.Error(t, err)

	_, _, err = parseFTPURL("ftp://example.com")
	assert.Error(t, err)
}
