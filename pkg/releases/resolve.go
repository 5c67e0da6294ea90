package releases

import (
	"github.com/BoboTiG/trafic/pkg/version"
)

// Resolve selects the release that should be installed: the highest
// version strictly greater than `current` among the releases admitted by
// the channel (`stable` excludes betas, `beta` admits everything). When
// two catalog entries report the same version, the one published later
// wins. Returns nil when there is nothing to update to.
//
// Resolve is pure: the same inputs always produce the same result.
func Resolve(current version.Version, channel Channel, catalog []Release) *Release {
	var best *Release
	for idx := range catalog {
		candidate := &catalog[idx]
		if channel == ChannelStable && candidate.Channel != ChannelStable {
			continue
		}
		if candidate.Version.Compare(current) <= 0 {
			continue
		}
		if best == nil {
			best = candidate
			continue
		}
		switch candidate.Version.Compare(best.Version) {
		case 1:
			best = candidate
		case 0:
			if candidate.PublishedAt.After(best.PublishedAt) {
				best = candidate
			}
		}
	}
	if best == nil {
		return nil
	}
	result := *best
	return &result
}
