package autoupdater

import (
	"fmt"
)

type ErrNoAsset struct {
	AssetName string
}

func (e ErrNoAsset) Error() string {
	if e.AssetName == "" {
		return "the release has no assets"
	}
	return fmt.Sprintf("the release has no asset '%s'", e.AssetName)
}

// ErrCancellationTooLate is informational, not an error condition: once
// the installer is detached there is nothing left to cancel.
type ErrCancellationTooLate struct{}

func (ErrCancellationTooLate) Error() string {
	return "the installer is already launched, it is too late to cancel"
}
