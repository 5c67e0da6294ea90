package releases

import (
	"fmt"
	"time"
)

type ErrInvalidChannel struct {
	Channel Channel
}

func (e ErrInvalidChannel) Error() string {
	return fmt.Sprintf("invalid channel '%s', expected '%s' or '%s'", e.Channel, ChannelStable, ChannelBeta)
}

type ErrCatalogUnreachable struct {
	Err error
}

func (e ErrCatalogUnreachable) Error() string {
	return fmt.Sprintf("the release catalog is unreachable: %v", e.Err)
}

func (e ErrCatalogUnreachable) Unwrap() error {
	return e.Err
}

type ErrCatalogMalformed struct {
	Err error
}

func (e ErrCatalogMalformed) Error() string {
	return fmt.Sprintf("the release catalog response cannot be parsed: %v", e.Err)
}

func (e ErrCatalogMalformed) Unwrap() error {
	return e.Err
}

type ErrRateLimited struct {
	// RetryAfter is the remote's hint on when it makes sense to retry;
	// zero when the remote did not provide one.
	RetryAfter time.Duration
	Err        error
}

func (e ErrRateLimited) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("the release catalog is rate limiting us (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("the release catalog is rate limiting us: %v", e.Err)
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}
