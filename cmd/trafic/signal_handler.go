package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

func interruptOnSignal(
	ctx context.Context,
	cancelFn context.CancelFunc,
) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	observability.Go(ctx, func(ctx context.Context) {
		for range c {
			logger.Infof(ctx, "received an interrupt, shutting down")
			cancelFn()
		}
	})
}
