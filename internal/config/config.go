package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fractalizend/screener/internal/alert"
	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/validate"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	Ingest    IngestConfig              `mapstructure:"ingest"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Alerts    AlertsConfig              `mapstructure:"alerts"`
	Log       LogConfig                 `mapstructure:"log"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host" default:"0.0.0.0"`
	Port   int    `mapstructure:"port" default:"8080" validate:"min=1,max=65535"`
	APIKey string `mapstructure:"api_key"`
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	Type  string      `mapstructure:"type" default:"buntdb" validate:"oneof=memory buntdb redis"`
	Path  string      `mapstructure:"path" default:"data/screener.db" validate:"required_if=Type buntdb"`
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" default:"localhost:6379"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
	Prefix   string `mapstructure:"prefix" default:"screener"`
}

// ArchiveConfig is where snapshots are written before a bulk-clear.
type ArchiveConfig struct {
	Type string   `mapstructure:"type" default:"none" validate:"oneof=none localfs s3"`
	Path string   `mapstructure:"path" default:"data/archive" validate:"required_if=Type localfs"`
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region" default:"us-east-1"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// IngestConfig controls how concurrent writes to one pair are resolved.
type IngestConfig struct {
	Consistency string `mapstructure:"consistency" default:"last_writer_wins" validate:"oneof=last_writer_wins compare_and_swap"`
	MaxAttempts int    `mapstructure:"max_attempts" default:"3" validate:"min=1,max=20"`
}

// NotifierConfig is keyed by notifier type in the notifiers map. Every key
// other than enabled is passed to the notifier as a param.
type NotifierConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:",remain"`
}

// AlertsConfig holds the notification allow-list.
type AlertsConfig struct {
	Rules []alert.Rule `mapstructure:"rules"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
}

// NotifierTypes lists the notifier types the application can build.
var NotifierTypes = []string{"email", "kafka", "telegram", "webhook", "whatsapp"}

// DefaultRules notifies Telegram when gold changes direction on the
// 30 minute chart.
func DefaultRules() []alert.Rule {
	return []alert.Rule{{
		Name:       "xauusd-30m",
		Pairs:      []string{"XAUUSD"},
		Timeframes: []string{"30"},
		Kinds:      []string{string(core.KindDirection)},
		Notifiers:  []string{"telegram"},
		Template:   alert.DefaultTemplate,
	}}
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("SCREENER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	cfg.Alerts.Rules = nil
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	if !v.IsSet("alerts.rules") {
		cfg.Alerts.Rules = DefaultRules()
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.Notifiers = map[string]NotifierConfig{}
	cfg.Alerts.Rules = DefaultRules()
	return cfg
}

// EnabledNotifiers returns the names of enabled notifiers, sorted.
func (c *Config) EnabledNotifiers() []string {
	var names []string
	for name, n := range c.Notifiers {
		if n.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Check(context.Background(), c); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Storage.Type == "redis" && c.Storage.Redis.Addr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("storage.redis.addr required when storage type is redis"))
	}
	if c.Archive.Type == "s3" && c.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("archive.s3.bucket required when archive type is s3"))
	}

	for name := range c.Notifiers {
		if !isNotifierType(name) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown notifier %q, expected one of %s", name, strings.Join(NotifierTypes, ", ")))
		}
	}

	if _, err := alert.NewPolicy(c.Alerts.Rules); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	return nil
}

func isNotifierType(name string) bool {
	for _, t := range NotifierTypes {
		if t == name {
			return true
		}
	}
	return false
}
