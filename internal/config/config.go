// Package config loads calculator settings from defaults, an optional config
// file, and COMMNET_* environment variables, and turns them into the core
// types the calculator runs on.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// COMMNET_RANGE_MODIFIER or COMMNET_SIGNAL_CURVE.
const EnvPrefix = "COMMNET"

// Config is the full calculator configuration.
type Config struct {
	Defaults DefaultsConfig              `mapstructure:"defaults"`
	Devices  DevicesConfig               `mapstructure:"devices"`
	Range    RangeConfig                 `mapstructure:"range"`
	Signal   SignalConfig                `mapstructure:"signal"`
	Log      logging.Config              `mapstructure:"log"`
	Server   ServerConfig                `mapstructure:"server"`
	Tracing  observability.TracingConfig `mapstructure:"tracing"`
}

// DefaultsConfig holds the specifiers used when an endpoint is left empty.
type DefaultsConfig struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// DevicesConfig lists external device-definition documents, loaded in order.
type DevicesConfig struct {
	Files []string `mapstructure:"files"`
	Watch bool     `mapstructure:"watch"`
}

// RangeConfig scales the range model.
type RangeConfig struct {
	Modifier float64 `mapstructure:"modifier"`
}

// SignalConfig selects the decay curve and the reported distance bands.
type SignalConfig struct {
	Curve          string            `mapstructure:"curve"`
	Knee           float64           `mapstructure:"knee"`
	KneeStrength   float64           `mapstructure:"knee_strength"`
	Bands          []BandConfig      `mapstructure:"bands"`
	ShowReferences bool              `mapstructure:"show_references"`
	References     []ReferenceConfig `mapstructure:"references"`
}

// BandConfig is one fractional band of the max distance.
type BandConfig struct {
	Label string  `mapstructure:"label"`
	Near  float64 `mapstructure:"near"`
	Far   float64 `mapstructure:"far"`
}

// ReferenceConfig is one named absolute distance range in metres.
type ReferenceConfig struct {
	Label string  `mapstructure:"label"`
	Min   float64 `mapstructure:"min"`
	Max   float64 `mapstructure:"max"`
}

// ServerConfig holds listen addresses for cmd/commnet-server.
type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment overrides apply. The file format follows its extension.
func Load(path string) (*Config, error) {
	v := New()
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
	}
	return Decode(v)
}

// New returns a viper instance with defaults and environment binding
// applied but no file read.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	files := c.Devices.Files[:0]
	for _, f := range c.Devices.Files {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	c.Devices.Files = files
	c.Signal.Curve = strings.ToLower(strings.TrimSpace(c.Signal.Curve))
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
}
