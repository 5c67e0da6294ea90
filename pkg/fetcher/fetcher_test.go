package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BoboTiG/trafic/pkg/releases"
)

func testCtx() context.Context {
	return logger.CtxWithLogger(context.Background(), xlogrus.Default().WithLevel(logger.LevelTrace))
}

func testFetcher(t *testing.T) *Fetcher {
	return New(Config{
		InitialBackoff: time.Millisecond,
		StagingRoot:    t.TempDir(),
	})
}

func stagingEntries(t *testing.T, root string) []os.DirEntry {
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	return entries
}

func TestFetch(t *testing.T) {
	ctx := testCtx()
	content := []byte("the new installer")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	defer server.Close()

	digest := sha256.Sum256(content)
	f := testFetcher(t)
	var lastReceived, lastTotal int64
	localPath, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
		Size:        int64(len(content)),
		Checksum: &releases.Checksum{
			Algorithm: "sha256",
			Digest:    hex.EncodeToString(digest[:]),
		},
	}, func(received, total int64) {
		lastReceived, lastTotal = received, total
	})
	require.NoError(t, err)

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "trafic-setup.exe", filepath.Base(localPath))
	assert.EqualValues(t, len(content), lastReceived)
	assert.EqualValues(t, len(content), lastTotal)
}

func TestFetchIntegrityMismatch(t *testing.T) {
	ctx := testCtx()
	content := []byte("tampered artifact, right size")
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(content)
	}))
	defer server.Close()

	f := testFetcher(t)
	_, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
		Size:        int64(len(content)),
		Checksum: &releases.Checksum{
			Algorithm: "sha256",
			Digest:    "00000000000000000000000000000000000000000000000000000000deadbeef",
		},
	}, nil)
	require.ErrorAs(t, err, &ErrIntegrityMismatch{})
	// a bad artifact is never retried
	assert.EqualValues(t, 1, requests.Load())
	// and no partial file is left on disk
	assert.Empty(t, stagingEntries(t, f.Config.StagingRoot))
}

func TestFetchIncomplete(t *testing.T) {
	ctx := testCtx()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("short"))
	}))
	defer server.Close()

	f := testFetcher(t)
	_, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
		Size:        1000,
	}, nil)
	var incomplete ErrDownloadIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.EqualValues(t, 5, incomplete.Received)
	assert.EqualValues(t, 1000, incomplete.Expected)
	assert.Empty(t, stagingEntries(t, f.Config.StagingRoot))
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	ctx := testCtx()
	content := []byte("eventually delivered")
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			// drop the connection mid-transfer
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.Write(content[:4])
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			panic(http.ErrAbortHandler)
		}
		w.Write(content)
	}))
	defer server.Close()

	f := testFetcher(t)
	localPath, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
		Size:        int64(len(content)),
	}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, requests.Load())

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := testCtx()
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	f := testFetcher(t)
	_, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
	}, nil)
	require.ErrorAs(t, err, &ErrDownloadFailed{})
	assert.EqualValues(t, 3, requests.Load())
	assert.Empty(t, stagingEntries(t, f.Config.StagingRoot))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	ctx := testCtx()
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := testFetcher(t)
	_, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
	}, nil)
	require.ErrorAs(t, err, &ErrDownloadFailed{})
	assert.EqualValues(t, 1, requests.Load())
}

func TestFetchCancellationRemovesStaging(t *testing.T) {
	ctx, cancelFn := context.WithCancel(testCtx())
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.Write(make([]byte, 100))
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	f := testFetcher(t)
	go func() {
		<-started
		cancelFn()
	}()
	_, err := f.Fetch(ctx, releases.Asset{
		Name:        "trafic-setup.exe",
		DownloadURL: server.URL,
		Size:        1000000,
	}, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stagingEntries(t, f.Config.StagingRoot))
}
