package config

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/BoboTiG/trafic/pkg/releases"
	"github.com/BoboTiG/trafic/pkg/xpath"
)

// Config is the update subsystem's configuration, supplied once at
// startup and read-only afterwards.
type Config struct {
	Enabled       bool              `yaml:"enabled"`
	Channel       releases.Channel  `yaml:"channel"`
	CheckInterval Duration          `yaml:"check_interval"`
	AutoConfirm   bool              `yaml:"auto_confirm"`
	Owner         string            `yaml:"owner"`
	Repository    string            `yaml:"repository"`
	AssetName     string            `yaml:"asset_name,omitempty"`

	// VersionOverride replaces the build-injected version; useful for
	// testing the update flow.
	VersionOverride string `yaml:"version_override,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Channel:       releases.ChannelStable,
		CheckInterval: Duration(time.Hour),
		AutoConfirm:   false,
		Owner:         "BoboTiG",
		Repository:    "trafic",
		AssetName:     defaultAssetName(),
	}
}

func defaultAssetName() string {
	if runtime.GOOS == "windows" {
		return "trafic-setup.exe"
	}
	// non-Windows releases carry a single artifact; pick the first one
	return ""
}

func (cfg Config) Validate() error {
	if err := cfg.Channel.Validate(); err != nil {
		return err
	}
	if cfg.Owner == "" || cfg.Repository == "" {
		return fmt.Errorf("the release index location (owner/repository) is not set")
	}
	return nil
}

// Duration is a time.Duration that (un)marshals as a human-readable
// string ("1h30m") instead of nanoseconds.
type Duration time.Duration

func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(b []byte) error {
	parsed, err := time.ParseDuration(strings.Trim(string(b), `"'`))
	if err != nil {
		return fmt.Errorf("unable to parse duration '%s': %w", b, err)
	}
	*d = Duration(parsed)
	return nil
}

func GetPath(rawPath string) (string, error) {
	return xpath.Expand(rawPath)
}

func ReadConfigFromPath(
	ctx context.Context,
	cfgPath string,
	cfg *Config,
) error {
	path, err := GetPath(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to get the path of the config file '%s': %w", cfgPath, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", path, err)
	}

	_, err = cfg.Read(b)
	return err
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	path, err := GetPath(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to get the path of the config file '%s': %w", cfgPath, err)
	}
	pathNew := path + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0750)
	if err != nil {
		return fmt.Errorf("unable to open the data file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write data to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, path)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, path, err)
	}
	logger.Infof(ctx, "wrote to '%s' config %#+v", path, cfg)
	return nil
}
