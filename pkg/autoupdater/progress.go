package autoupdater

import (
	"time"

	"github.com/BoboTiG/trafic/pkg/fetcher"
)

const progressReportInterval = 100 * time.Millisecond

// newProgressThrottler rate-limits the per-chunk download callbacks so
// the state feed is not flooded. The final report (received == total) is
// always let through. Called from the single download goroutine, so no
// locking.
func newProgressThrottler(report fetcher.ProgressFunc) fetcher.ProgressFunc {
	var lastReported int64 = -1
	var lastReportedAt time.Time
	return func(received, total int64) {
		if received == lastReported {
			return
		}
		now := time.Now()
		if received != total && now.Sub(lastReportedAt) < progressReportInterval {
			return
		}
		lastReported = received
		lastReportedAt = now
		report(received, total)
	}
}
