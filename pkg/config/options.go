package config

import (
	"github.com/BoboTiG/trafic/pkg/releases"
)

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (options Options) ApplyOverrides(cfg Config) Config {
	for _, option := range options {
		option.Apply(&cfg)
	}
	return cfg
}

type OptionEnabled bool

func (o OptionEnabled) Apply(cfg *Config) {
	cfg.Enabled = bool(o)
}

type OptionChannel releases.Channel

func (o OptionChannel) Apply(cfg *Config) {
	cfg.Channel = releases.Channel(o)
}

type OptionVersionOverride string

func (o OptionVersionOverride) Apply(cfg *Config) {
	cfg.VersionOverride = string(o)
}
