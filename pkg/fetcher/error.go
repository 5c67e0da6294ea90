package fetcher

import (
	"fmt"
)

type ErrDownloadFailed struct {
	Err error
}

func (e ErrDownloadFailed) Error() string {
	return fmt.Sprintf("the download failed: %v", e.Err)
}

func (e ErrDownloadFailed) Unwrap() error {
	return e.Err
}

type ErrDownloadIncomplete struct {
	Received int64
	Expected int64
}

func (e ErrDownloadIncomplete) Error() string {
	return fmt.Sprintf("the download is incomplete: received %d bytes, expected %d", e.Received, e.Expected)
}

// ErrIntegrityMismatch indicates a bad artifact (tampering or a catalog
// bug), never a transient condition.
type ErrIntegrityMismatch struct {
	Algorithm string
	Expected  string
	Actual    string
}

func (e ErrIntegrityMismatch) Error() string {
	return fmt.Sprintf("the %s checksum of the artifact is '%s', expected '%s'", e.Algorithm, e.Actual, e.Expected)
}
