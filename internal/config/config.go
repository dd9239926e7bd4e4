// Package config loads flashdir settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/0xRadioAc7iv/go-flashdir/core"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
	"github.com/0xRadioAc7iv/go-flashdir/internal/update"
)

const (
	ConfigName = "flashdir"
	EnvPrefix  = "FLASHDIR"
)

// Keys, also used as flag names with '_' spelled '-'.
const (
	KeyImage         = "image"
	KeyCapacity      = "capacity"
	KeyWindow        = "window"
	KeyDoorID        = "door_id"
	KeyAudit         = "audit"
	KeyMetrics       = "metrics"
	KeyLogLevel      = "log_level"
	KeySweepInterval = "sweep_interval"
)

type Config struct {
	Image         string `mapstructure:"image" yaml:"image"`
	Capacity      uint32 `mapstructure:"capacity" yaml:"capacity"`
	Window        int    `mapstructure:"window" yaml:"window"`
	DoorID        uint16 `mapstructure:"door_id" yaml:"door_id"`
	Audit         string `mapstructure:"audit" yaml:"audit"`     // empty disables the audit log
	Metrics       string `mapstructure:"metrics" yaml:"metrics"` // empty disables the textfile export
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	SweepInterval int    `mapstructure:"sweep_interval" yaml:"sweep_interval"` // seconds

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

func Defaults() map[string]any {
	return map[string]any{
		KeyImage:         core.DefaultImagePath,
		KeyCapacity:      core.DefaultCapacity,
		KeyWindow:        core.DefaultWindowSize,
		KeyDoorID:        update.DefaultDoorID,
		KeyAudit:         "",
		KeyMetrics:       "",
		KeyLogLevel:      logrus.InfoLevel.String(),
		KeySweepInterval: core.DefaultSweepIntervalSeconds,
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// RegisterFlags defines one flag per key on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyImage), core.DefaultImagePath, "path of the medium image file")
	fs.Uint32(flagName(KeyCapacity), core.DefaultCapacity, "medium capacity in bytes")
	fs.Int(flagName(KeyWindow), core.DefaultWindowSize, "scan window in slots")
	fs.Uint16(flagName(KeyDoorID), update.DefaultDoorID, "door this reader controls")
	fs.String(flagName(KeyAudit), "", "path of the audit database (disabled when empty)")
	fs.String(flagName(KeyMetrics), "", "path of the metrics textfile (disabled when empty)")
	fs.String(flagName(KeyLogLevel), logrus.InfoLevel.String(), "log level")
	fs.Int(flagName(KeySweepInterval), core.DefaultSweepIntervalSeconds, "seconds between maintenance sweeps")
}

// userConfigDir is where flashdir.yaml is searched before the working
// directory.
func userConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not get user config directory")
	}
	return filepath.Join(dir, ConfigName), nil
}

// Load resolves the configuration. file names an explicit config file, which
// must exist; when empty, flashdir.yaml is looked up and may be absent. fs
// may be nil.
func Load(fs *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		if dir, err := userConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key := range Defaults() {
			if f := fs.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", f.Name)
				}
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	c.File = v.ConfigFileUsed()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Image == "" {
		return errors.New("config: image path is empty")
	}
	if c.Capacity < record.RecordSize {
		return errors.Errorf("config: capacity %d holds no %d-byte slot", c.Capacity, record.RecordSize)
	}
	if c.Window < core.MinimumWindowSize {
		return errors.Errorf("config: window %d below minimum %d", c.Window, core.MinimumWindowSize)
	}
	if c.SweepInterval < core.MinimumSweepIntervalSeconds {
		return errors.Errorf("config: sweep interval %ds below minimum %ds", c.SweepInterval, core.MinimumSweepIntervalSeconds)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}

// Level is the parsed log level; Validate has already checked it.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
