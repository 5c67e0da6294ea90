package releases

import (
	"time"

	"github.com/BoboTiG/trafic/pkg/version"
)

type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
)

func (c Channel) Validate() error {
	switch c {
	case ChannelStable, ChannelBeta:
		return nil
	}
	return ErrInvalidChannel{Channel: c}
}

// Release is an immutable snapshot of one published version, as reported
// by the release index.
type Release struct {
	Version     version.Version
	Channel     Channel
	PublishedAt time.Time
	Assets      []Asset
}

// InstallerAsset returns the asset with the given name, or the first
// asset when the name is empty. Returns nil if nothing matches.
func (r Release) InstallerAsset(name string) *Asset {
	if name == "" {
		if len(r.Assets) == 0 {
			return nil
		}
		return &r.Assets[0]
	}
	for idx := range r.Assets {
		if r.Assets[idx].Name == name {
			return &r.Assets[idx]
		}
	}
	return nil
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string

	// Size is the expected file size in bytes; 0 means unknown.
	Size int64

	// Checksum is optional; when nil the artifact is only size-validated.
	Checksum *Checksum
}

type Checksum struct {
	Algorithm string
	Digest    string
}
