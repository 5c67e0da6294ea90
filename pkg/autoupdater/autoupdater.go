package autoupdater

import (
	"context"
	"errors"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	eventbus "github.com/asaskevich/EventBus"
	"github.com/xaionaro-go/xsync"

	"github.com/BoboTiG/trafic/pkg/fetcher"
	"github.com/BoboTiG/trafic/pkg/releases"
	"github.com/BoboTiG/trafic/pkg/version"
	"github.com/BoboTiG/trafic/pkg/xcontext"
)

type Catalog interface {
	ListReleases(ctx context.Context) ([]releases.Release, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, asset releases.Asset, progress fetcher.ProgressFunc) (string, error)
}

type Installer interface {
	Unattended() bool
	Install(ctx context.Context, artifactPath string) error
}

type EventBus interface {
	Publish(topic string, args ...any)
	SubscribeAsync(topic string, fn any, transactional bool) error
	Unsubscribe(topic string, handler any) error
	WaitAsync()
}

type Config struct {
	Enabled bool
	Channel releases.Channel

	// CheckInterval is the pause between scheduled checks; InitialDelay
	// is the pause before the first one.
	CheckInterval time.Duration
	InitialDelay  time.Duration

	// AutoConfirm skips the user confirmation between UpdateAvailable
	// and Downloading.
	AutoConfirm bool

	// AssetName selects the installer asset of a release; empty means
	// the first asset.
	AssetName string

	CurrentVersion version.Version

	// CloseApp is called after the installer is launched, so the
	// installer can replace the (now exiting) application.
	CloseApp func()
}

func (cfg Config) checkInterval() time.Duration {
	if cfg.CheckInterval == 0 {
		return time.Hour
	}
	return cfg.CheckInterval
}

// AutoUpdater drives the whole update pipeline: catalog check, version
// resolution, artifact download, installer launch. At most one cycle is
// in flight at a time; triggers arriving while busy are coalesced away.
type AutoUpdater struct {
	Config    Config
	Catalog   Catalog
	Fetcher   Fetcher
	Installer Installer
	EventBus  EventBus

	locker        xsync.Mutex
	state         UpdateState
	inFlight      bool
	installing    bool
	cancelAttempt context.CancelFunc

	triggerChan chan struct{}
	confirmChan chan struct{}
}

func New(
	cfg Config,
	catalog Catalog,
	artifactFetcher Fetcher,
	installerInvoker Installer,
) *AutoUpdater {
	return &AutoUpdater{
		Config:      cfg,
		Catalog:     catalog,
		Fetcher:     artifactFetcher,
		Installer:   installerInvoker,
		EventBus:    eventbus.New(),
		state:       StateIdle{},
		triggerChan: make(chan struct{}, 1),
		confirmChan: make(chan struct{}, 1),
	}
}

// Serve runs the orchestrator until ctx is done: the first check after
// InitialDelay, then one per CheckInterval, plus whatever TriggerCheck
// asks for in between.
func (u *AutoUpdater) Serve(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Serve")
	defer func() { logger.Debugf(ctx, "/Serve: %v", _err) }()

	if !u.Config.Enabled {
		logger.Infof(ctx, "auto-update is disabled")
		u.setState(ctx, StateIdle{})
		<-ctx.Done()
		return ctx.Err()
	}

	timer := time.NewTimer(u.Config.InitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-u.triggerChan:
		}

		u.runCycle(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(u.Config.checkInterval())
	}
}

// TriggerCheck asks for an immediate check. A no-op while a cycle is
// already in flight (single-flight, never queued).
func (u *AutoUpdater) TriggerCheck(ctx context.Context) {
	logger.Debugf(ctx, "TriggerCheck")

	var busy bool
	u.locker.Do(ctx, func() { busy = u.inFlight })
	if busy {
		logger.Debugf(ctx, "an update cycle is already in flight, coalescing the trigger")
		return
	}

	select {
	case u.triggerChan <- struct{}{}:
	default:
	}
}

// ConfirmInstall lets a pending UpdateAvailable proceed to Downloading.
// Meaningless (and harmless) in any other state or with AutoConfirm set.
func (u *AutoUpdater) ConfirmInstall(ctx context.Context) {
	logger.Debugf(ctx, "ConfirmInstall")
	select {
	case u.confirmChan <- struct{}{}:
	default:
	}
}

// Cancel aborts the in-flight cycle, discarding any partial download.
// Once the installer launch has begun it returns ErrCancellationTooLate
// and does nothing: the installer process is already detached.
func (u *AutoUpdater) Cancel(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Cancel")
	defer func() { logger.Debugf(ctx, "/Cancel: %v", _err) }()

	var cancelFn context.CancelFunc
	var tooLate bool
	u.locker.Do(ctx, func() {
		if u.installing {
			tooLate = true
			return
		}
		cancelFn = u.cancelAttempt
	})
	if tooLate {
		return ErrCancellationTooLate{}
	}
	if cancelFn != nil {
		cancelFn()
	}
	return nil
}

func (u *AutoUpdater) GetState(ctx context.Context) UpdateState {
	var state UpdateState
	u.locker.Do(ctx, func() { state = u.state })
	return state
}

func (u *AutoUpdater) runCycle(ctx context.Context) {
	attemptCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	u.locker.Do(ctx, func() {
		u.inFlight = true
		u.cancelAttempt = cancelFn
	})
	defer func() {
		u.locker.Do(ctx, func() {
			u.inFlight = false
			u.installing = false
			u.cancelAttempt = nil
		})
		// drop anything that arrived while we were busy
		select {
		case <-u.triggerChan:
		default:
		}
		select {
		case <-u.confirmChan:
		default:
		}
	}()

	err := u.updateOnce(attemptCtx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		// cancelled by the user, not by an application shutdown
		logger.Infof(ctx, "the update was cancelled")
		u.setState(ctx, StateIdle{})
	case ctx.Err() != nil:
		// shutting down; the state no longer matters
	default:
		logger.Errorf(ctx, "the update cycle failed: %v", err)
		u.setState(ctx, StateFailed{Reason: reasonOf(err), Err: err})
	}
}

func (u *AutoUpdater) updateOnce(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "updateOnce")
	defer func() { logger.Debugf(ctx, "/updateOnce: %v", _err) }()

	u.setState(ctx, StateChecking{})
	catalog, err := u.Catalog.ListReleases(ctx)
	if err != nil {
		return err
	}

	target := releases.Resolve(u.Config.CurrentVersion, u.Config.Channel, catalog)
	if target == nil {
		logger.Infof(ctx, "already running the newest version (%s)", u.Config.CurrentVersion)
		u.setState(ctx, StateNoUpdateAvailable{})
		return nil
	}
	logger.Infof(ctx, "found an update: %s -> %s", u.Config.CurrentVersion, target.Version)
	logger.Tracef(ctx, "the update target: %s", spew.Sdump(target))
	u.setState(ctx, StateUpdateAvailable{Release: *target})

	if !u.Config.AutoConfirm {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.confirmChan:
			logger.Debugf(ctx, "the update to %s is confirmed", target.Version)
		}
	}

	asset := target.InstallerAsset(u.Config.AssetName)
	if asset == nil {
		return ErrNoAsset{AssetName: u.Config.AssetName}
	}

	u.setState(ctx, StateDownloading{Release: *target, Total: asset.Size})
	progress := newProgressThrottler(func(received, total int64) {
		u.setState(ctx, StateDownloading{Release: *target, Received: received, Total: total})
	})
	localPath, err := u.Fetcher.Fetch(ctx, *asset, progress)
	if err != nil {
		return err
	}
	u.setState(ctx, StateReadyToInstall{Release: *target, LocalPath: localPath})

	if !u.Installer.Unattended() {
		logger.Infof(ctx, "no unattended installer on this platform; version %s is staged at '%s'", target.Version, localPath)
		return nil
	}

	u.locker.Do(ctx, func() { u.installing = true })
	u.setState(ctx, StateInstalling{Release: *target})
	// the installer must not die with us, so its launch ignores our
	// cancellation
	if err := u.Installer.Install(xcontext.DetachDone(ctx), localPath); err != nil {
		return err
	}

	if closeApp := u.Config.CloseApp; closeApp != nil {
		logger.Infof(ctx, "the installer is running, closing the application")
		closeApp()
	}
	return nil
}

func (u *AutoUpdater) setState(ctx context.Context, state UpdateState) {
	u.locker.Do(ctx, func() { u.state = state })
	logger.Debugf(ctx, "state: %s", state)
	u.EventBus.Publish(topicUpdateState, state)
}
