package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"github.com/BoboTiG/trafic/pkg/releases"
)

const copyChunkSize = 32 * 1024

// ProgressFunc receives the number of bytes received so far and the
// expected total (negative when unknown).
type ProgressFunc func(received, total int64)

type Config struct {
	// MaxAttempts bounds the download attempts for transient network
	// failures; size and checksum mismatches are never retried.
	MaxAttempts    uint
	InitialBackoff time.Duration

	// StagingRoot is where attempt-scoped staging directories are
	// created; defaults to the system temp directory.
	StagingRoot string

	HTTPClient *http.Client
}

func (cfg Config) maxAttempts() uint {
	if cfg.MaxAttempts == 0 {
		return 3
	}
	return cfg.MaxAttempts
}

func (cfg Config) initialBackoff() time.Duration {
	if cfg.InitialBackoff == 0 {
		return 500 * time.Millisecond
	}
	return cfg.InitialBackoff
}

func (cfg Config) stagingRoot() string {
	if cfg.StagingRoot == "" {
		return os.TempDir()
	}
	return cfg.StagingRoot
}

func (cfg Config) httpClient() *http.Client {
	if cfg.HTTPClient == nil {
		return http.DefaultClient
	}
	return cfg.HTTPClient
}

type Fetcher struct {
	Config Config
}

func New(cfg Config) *Fetcher {
	return &Fetcher{Config: cfg}
}

// Fetch downloads the asset into a fresh staging directory and returns
// the path of the downloaded file. On any failure (including
// cancellation) the staging directory is removed, so a partial artifact
// is never left behind.
func (f *Fetcher) Fetch(
	ctx context.Context,
	asset releases.Asset,
	progress ProgressFunc,
) (_ret string, _err error) {
	logger.Debugf(ctx, "Fetch(ctx, '%s')", asset.Name)
	defer func() { logger.Debugf(ctx, "/Fetch(ctx, '%s'): '%s' %v", asset.Name, _ret, _err) }()

	if asset.DownloadURL == "" {
		return "", ErrDownloadFailed{Err: fmt.Errorf("the asset '%s' has no download URL", asset.Name)}
	}

	stagingDir, err := os.MkdirTemp(f.Config.stagingRoot(), "trafic-update-*")
	if err != nil {
		return "", ErrDownloadFailed{Err: fmt.Errorf("unable to create a staging directory: %w", err)}
	}
	localPath := filepath.Join(stagingDir, filepath.Base(asset.Name))

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = f.Config.initialBackoff()
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(f.Config.maxAttempts()-1)),
		ctx,
	)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		err := f.fetchOnce(ctx, asset, localPath, progress)
		if err != nil {
			logger.Warnf(ctx, "download attempt #%d of '%s' failed: %v", attempt, asset.Name, err)
		}
		return err
	}, policy)
	if err != nil {
		if removeErr := os.RemoveAll(stagingDir); removeErr != nil {
			err = multierror.Append(err, fmt.Errorf("unable to remove the staging directory '%s': %w", stagingDir, removeErr))
		}
		return "", asFetchError(err)
	}

	return localPath, nil
}

func (f *Fetcher) fetchOnce(
	ctx context.Context,
	asset releases.Asset,
	localPath string,
	progress ProgressFunc,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return backoff.Permanent(ErrDownloadFailed{Err: fmt.Errorf("unable to prepare a request to '%s': %w", asset.DownloadURL, err)})
	}

	resp, err := f.Config.httpClient().Do(req)
	if err != nil {
		// transport errors (connection reset, timeout, DNS) are transient
		return fmt.Errorf("unable to fetch '%s': %w", asset.DownloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected HTTP status %d while fetching '%s'", resp.StatusCode, asset.DownloadURL)
		if resp.StatusCode >= 500 {
			return err
		}
		return backoff.Permanent(ErrDownloadFailed{Err: err})
	}

	total := asset.Size
	if total == 0 {
		total = resp.ContentLength
	}

	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return backoff.Permanent(ErrDownloadFailed{Err: fmt.Errorf("unable to open '%s': %w", localPath, err)})
	}

	var hasher hash.Hash
	dst := io.Writer(out)
	if asset.Checksum != nil {
		hasher = sha256.New()
		dst = io.MultiWriter(out, hasher)
	}

	received, copyErr := copyWithProgress(ctx, dst, resp.Body, total, progress)
	syncErr := out.Sync()
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("unable to download '%s': %w", asset.DownloadURL, copyErr)
	}
	if err := errors.Join(syncErr, closeErr); err != nil {
		return backoff.Permanent(ErrDownloadFailed{Err: fmt.Errorf("unable to write '%s' to disk: %w", localPath, err)})
	}

	if asset.Size > 0 && received != asset.Size {
		return backoff.Permanent(ErrDownloadIncomplete{Received: received, Expected: asset.Size})
	}

	if asset.Checksum != nil {
		if err := verifyChecksum(*asset.Checksum, hasher); err != nil {
			return backoff.Permanent(err)
		}
	}

	return nil
}

func copyWithProgress(
	ctx context.Context,
	dst io.Writer,
	src io.Reader,
	total int64,
	progress ProgressFunc,
) (int64, error) {
	var received int64
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return received, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return received, err
			}
			received += int64(n)
			if progress != nil {
				progress(received, total)
			}
		}
		switch readErr {
		case nil:
		case io.EOF:
			return received, nil
		default:
			return received, readErr
		}
	}
}

func verifyChecksum(expected releases.Checksum, hasher hash.Hash) error {
	if !strings.EqualFold(expected.Algorithm, "sha256") {
		return ErrDownloadFailed{Err: fmt.Errorf("unsupported checksum algorithm '%s'", expected.Algorithm)}
	}
	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, expected.Digest) {
		return ErrIntegrityMismatch{
			Algorithm: expected.Algorithm,
			Expected:  expected.Digest,
			Actual:    actual,
		}
	}
	return nil
}

// asFetchError keeps the typed errors of the taxonomy intact and wraps
// everything else into ErrDownloadFailed.
func asFetchError(err error) error {
	var incomplete ErrDownloadIncomplete
	if errors.As(err, &incomplete) {
		return incomplete
	}
	var mismatch ErrIntegrityMismatch
	if errors.As(err, &mismatch) {
		return mismatch
	}
	var failed ErrDownloadFailed
	if errors.As(err, &failed) {
		return failed
	}
	return ErrDownloadFailed{Err: err}
}
