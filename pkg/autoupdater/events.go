package autoupdater

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

const topicUpdateState = "update_state"

// SubscribeToStateChanges returns a channel with every UpdateState
// transition, in order. The subscription lives until ctx is done; then
// the channel is closed.
func (u *AutoUpdater) SubscribeToStateChanges(ctx context.Context) (<-chan UpdateState, error) {
	var mutex sync.Mutex
	r := make(chan UpdateState)
	callback := func(state UpdateState) {
		mutex.Lock()
		defer mutex.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case r <- state:
		case <-ctx.Done():
		case <-time.After(time.Minute):
			logger.Errorf(ctx, "unable to notify about the state '%s': timeout", state)
		}
	}

	err := u.EventBus.SubscribeAsync(topicUpdateState, callback, true)
	if err != nil {
		return nil, fmt.Errorf("unable to subscribe: %w", err)
	}

	observability.Go(ctx, func(ctx context.Context) {
		<-ctx.Done()

		mutex.Lock()
		defer mutex.Unlock()

		u.EventBus.Unsubscribe(topicUpdateState, callback)
		u.EventBus.WaitAsync()
		close(r)
	})

	return r, nil
}
