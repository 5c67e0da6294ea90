package buildvars

import (
	"strconv"
	"time"
)

// Set at link time, e.g.:
//
//	go build -ldflags "-X github.com/BoboTiG/trafic/pkg/buildvars.Version=0.2.0"
var (
	GitCommit       string
	Version         string
	BuildDateString string
	BuildDate       *time.Time
)

func init() {
	unixTS, err := strconv.ParseInt(BuildDateString, 10, 64)
	if err == nil {
		BuildDate = ptr(time.Unix(unixTS, 0))
	}
}

func ptr[T any](v T) *T {
	return &v
}
