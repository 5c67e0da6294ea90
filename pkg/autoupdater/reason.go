package autoupdater

import (
	"errors"

	"github.com/BoboTiG/trafic/pkg/fetcher"
	"github.com/BoboTiG/trafic/pkg/installer"
	"github.com/BoboTiG/trafic/pkg/releases"
)

// Reason is the machine-readable code carried by StateFailed.
type Reason string

const (
	ReasonCatalogUnreachable  Reason = "catalog_unreachable"
	ReasonCatalogMalformed    Reason = "catalog_malformed"
	ReasonRateLimited         Reason = "rate_limited"
	ReasonNoAsset             Reason = "no_asset"
	ReasonDownloadFailed      Reason = "download_failed"
	ReasonDownloadIncomplete  Reason = "download_incomplete"
	ReasonIntegrityMismatch   Reason = "integrity_mismatch"
	ReasonInstallLaunchFailed Reason = "install_launch_failed"
	ReasonUnknown             Reason = "unknown"
)

func reasonOf(err error) Reason {
	switch {
	case errors.As(err, &releases.ErrRateLimited{}):
		return ReasonRateLimited
	case errors.As(err, &releases.ErrCatalogMalformed{}):
		return ReasonCatalogMalformed
	case errors.As(err, &releases.ErrCatalogUnreachable{}):
		return ReasonCatalogUnreachable
	case errors.As(err, &ErrNoAsset{}):
		return ReasonNoAsset
	case errors.As(err, &fetcher.ErrIntegrityMismatch{}):
		return ReasonIntegrityMismatch
	case errors.As(err, &fetcher.ErrDownloadIncomplete{}):
		return ReasonDownloadIncomplete
	case errors.As(err, &fetcher.ErrDownloadFailed{}):
		return ReasonDownloadFailed
	case errors.As(err, &installer.ErrInstallLaunchFailed{}):
		return ReasonInstallLaunchFailed
	}
	return ReasonUnknown
}
