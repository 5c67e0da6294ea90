package panel

import (
	"context"

	"fyne.io/systray"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"

	"github.com/BoboTiG/trafic/pkg/autoupdater"
)

// Panel is the systray collaborator of the update subsystem: it renders
// UpdateState transitions into the tray tooltip/menu and forwards the
// user's clicks (check now, confirm, cancel, quit) to the orchestrator.
type Panel struct {
	Title   string
	Updater *autoupdater.AutoUpdater
}

func New(title string, updater *autoupdater.AutoUpdater) *Panel {
	return &Panel{
		Title:   title,
		Updater: updater,
	}
}

// Loop runs the tray surface until ctx is done or the user quits.
func (p *Panel) Loop(ctx context.Context) error {
	ctx, cancelFn := context.WithCancel(ctx)
	systray.Run(
		func() { p.onReady(ctx, cancelFn) },
		func() { cancelFn() },
	)
	return nil
}

func (p *Panel) onReady(ctx context.Context, cancelFn context.CancelFunc) {
	logger.Debugf(ctx, "onReady")
	systray.SetTitle(p.Title)
	systray.SetTooltip(p.Title)

	checkItem := systray.AddMenuItem("Check for updates", "Check for a newer version now")
	installItem := systray.AddMenuItem("Install the update", "Download and install the new version")
	installItem.Disable()
	cancelItem := systray.AddMenuItem("Cancel the update", "Abort the update in progress")
	cancelItem.Disable()
	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Quit "+p.Title)

	stateChan, err := p.Updater.SubscribeToStateChanges(ctx)
	if err != nil {
		logger.Errorf(ctx, "unable to subscribe to the update state changes: %v", err)
	}

	observability.Go(ctx, func(ctx context.Context) {
		defer systray.Quit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-checkItem.ClickedCh:
				p.Updater.TriggerCheck(ctx)
			case <-installItem.ClickedCh:
				p.Updater.ConfirmInstall(ctx)
			case <-cancelItem.ClickedCh:
				if err := p.Updater.Cancel(ctx); err != nil {
					logger.Warnf(ctx, "unable to cancel the update: %v", err)
				}
			case <-quitItem.ClickedCh:
				cancelFn()
				return
			case state, ok := <-stateChan:
				if !ok {
					return
				}
				p.applyState(ctx, state, installItem, cancelItem)
			}
		}
	})
}

func (p *Panel) applyState(
	ctx context.Context,
	state autoupdater.UpdateState,
	installItem *systray.MenuItem,
	cancelItem *systray.MenuItem,
) {
	logger.Debugf(ctx, "applyState: %s", state)
	systray.SetTooltip(p.Title + ": " + state.String())

	switch state.(type) {
	case autoupdater.StateUpdateAvailable:
		installItem.Enable()
	default:
		installItem.Disable()
	}

	switch state.(type) {
	case autoupdater.StateChecking, autoupdater.StateDownloading:
		cancelItem.Enable()
	default:
		cancelItem.Disable()
	}
}
