package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/zap"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"

	"github.com/BoboTiG/trafic/pkg/autoupdater"
	"github.com/BoboTiG/trafic/pkg/buildvars"
	"github.com/BoboTiG/trafic/pkg/config"
	"github.com/BoboTiG/trafic/pkg/fetcher"
	"github.com/BoboTiG/trafic/pkg/installer"
	"github.com/BoboTiG/trafic/pkg/panel"
	"github.com/BoboTiG/trafic/pkg/releases"
	"github.com/BoboTiG/trafic/pkg/version"
)

const initialCheckDelay = 30 * time.Second

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config-path", "~/.trafic.yaml", "the path to the config file")
	checkNow := pflag.Bool("check-now", false, "check for updates immediately instead of waiting for the first tick")
	netPprofAddr := pflag.String("go-net-pprof-addr", "", "address to listen to for net/pprof requests")
	pflag.Parse()
	l := zap.Default().WithLevel(loggerLevel)

	if *netPprofAddr != "" {
		go func() {
			l.Infof("starting to listen for net/pprof requests at '%s'", *netPprofAddr)
			l.Error(http.ListenAndServe(*netPprofAddr, nil))
		}()
	}

	ctx := context.Background()
	ctx = logger.CtxWithLogger(ctx, l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	interruptOnSignal(ctx, cancelFn)

	cfg := config.DefaultConfig()
	if err := config.ReadConfigFromPath(ctx, *configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Infof(ctx, "no config file at '%s', writing the defaults", *configPath)
			if err := config.WriteConfigToPath(ctx, *configPath, cfg); err != nil {
				logger.Errorf(ctx, "unable to write the default config: %v", err)
			}
		} else {
			l.Fatalf("unable to read the config from '%s': %v", *configPath, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		l.Fatalf("invalid config: %v", err)
	}

	currentVersion := currentVersion(ctx, cfg)
	logger.Infof(ctx, "trafic %s (commit: %s)", currentVersion, buildvars.GitCommit)

	updater := autoupdater.New(
		autoupdater.Config{
			Enabled:        cfg.Enabled,
			Channel:        cfg.Channel,
			CheckInterval:  time.Duration(cfg.CheckInterval),
			InitialDelay:   initialCheckDelay,
			AutoConfirm:    cfg.AutoConfirm,
			AssetName:      cfg.AssetName,
			CurrentVersion: currentVersion,
			CloseApp:       cancelFn,
		},
		releases.New(cfg.Owner, cfg.Repository),
		fetcher.New(fetcher.Config{}),
		installer.New(),
	)
	observability.Go(ctx, func(ctx context.Context) {
		err := updater.Serve(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Errorf(ctx, "the auto-updater stopped: %v", err)
		}
	})
	if *checkNow {
		updater.TriggerCheck(ctx)
	}

	err := panel.New("trafic", updater).Loop(ctx)
	if err != nil {
		l.Fatal(err)
	}
}

func currentVersion(ctx context.Context, cfg config.Config) version.Version {
	verString := cfg.VersionOverride
	if verString == "" {
		verString = buildvars.Version
	}
	if verString == "" {
		logger.Warnf(ctx, "no version was injected at build time, assuming 0.0.0")
		return version.Version{}
	}
	v, err := version.Parse(verString)
	if err != nil {
		logger.Errorf(ctx, "unable to parse the version '%s': %v", verString, err)
		return version.Version{}
	}
	return v
}
