package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	ConfigName  = "config"
	LogFileName = "trf.log"
	sqliteFile  = "trf.db"
	diskvDir    = "trf.d"
	envPrefix   = "TRF"
)

type RuntimeConfig struct {
	Home            string
	LogLevel        string
	Restore         bool
	StorageDriver   string
	DueAlerts       bool
	SchedulerBuffer int
	// ListWidth caps the listing width; zero follows the terminal.
	ListWidth int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		LogLevel:        "info",
		StorageDriver:   "sqlite",
		DueAlerts:       true,
		SchedulerBuffer: 64,
	}
}

func (c RuntimeConfig) DatabasePath() string {
	if strings.EqualFold(c.StorageDriver, "diskv") {
		return filepath.Join(c.Home, diskvDir)
	}
	return filepath.Join(c.Home, sqliteFile)
}

func (c RuntimeConfig) LogPath() string {
	return filepath.Join(c.Home, LogFileName)
}

// ResolveHome picks the data directory: explicit value, then TRFHOME or
// TRF_HOME, then the working directory. "~" is expanded.
func ResolveHome(explicit string) (string, error) {
	home := strings.TrimSpace(explicit)
	if home == "" {
		home = strings.TrimSpace(os.Getenv("TRFHOME"))
	}
	if home == "" {
		home = strings.TrimSpace(os.Getenv("TRF_HOME"))
	}
	if home == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		home = wd
	}
	expanded, err := homedir.Expand(home)
	if err != nil {
		return "", fmt.Errorf("expand home %q: %w", home, err)
	}
	return filepath.Clean(expanded), nil
}

// Load layers defaults, <home>/config.yaml and TRF_* environment variables.
// A missing config file is not an error.
func Load(home string) (RuntimeConfig, error) {
	base := DefaultRuntimeConfig()
	base.Home = home

	v := newViper(base)
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return base, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v, base), nil
}

// RuntimeConfigFromEnv overlays TRF_* environment variables on base.
func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	return fromViper(newViper(base), base)
}

func newViper(base RuntimeConfig) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("log_level", base.LogLevel)
	v.SetDefault("storage", base.StorageDriver)
	v.SetDefault("due_alerts", base.DueAlerts)
	v.SetDefault("scheduler_buffer", base.SchedulerBuffer)
	v.SetDefault("width", base.ListWidth)
	return v
}

func fromViper(v *viper.Viper, base RuntimeConfig) RuntimeConfig {
	cfg := base
	if s := strings.TrimSpace(v.GetString("log_level")); s != "" {
		cfg.LogLevel = s
	}
	if s := strings.TrimSpace(v.GetString("storage")); s != "" {
		cfg.StorageDriver = strings.ToLower(s)
	}
	cfg.DueAlerts = v.GetBool("due_alerts")
	if n := v.GetInt("scheduler_buffer"); n > 0 {
		cfg.SchedulerBuffer = n
	}
	if n := v.GetInt("width"); n >= 0 {
		cfg.ListWidth = n
	}
	return cfg
}
