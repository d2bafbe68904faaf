// Package config holds the settings shared by varscore commands,
// loaded from ~/.varscore.yaml and VARSCORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/varscore/varscore/internal/remote"
	"github.com/varscore/varscore/internal/workspace"
)

// StoreConfig is settings for local score stores.
type StoreConfig struct {
	// directory holding built score store files
	Dir string `mapstructure:"dir"`

	// concurrent lookups per batch; 0 means one per CPU
	Workers int `mapstructure:"workers"`
}

// RemoteConfig is settings for the remote scoring service.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Version string `mapstructure:"version"`

	// how often a queued job is checked
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// total polling budget per job
	MaxWait time.Duration `mapstructure:"max-wait"`
}

// WorkspaceConfig is settings for the user workspace.
type WorkspaceConfig struct {
	Dir string `mapstructure:"dir"`

	// how long abandoned scratch entries survive
	ScratchMaxAge time.Duration `mapstructure:"scratch-max-age"`
}

// Config is the root-level settings struct.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
}

// Init wires viper to the config file and environment. An empty
// cfgFile means ~/.varscore.yaml; a missing file is not an error.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.SetConfigName(".varscore")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("VARSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults() {
	base := defaultBaseDir()
	viper.SetDefault("store.dir", filepath.Join(base, "stores"))
	viper.SetDefault("store.workers", 0)
	viper.SetDefault("remote.base-url", remote.DefaultBaseURL)
	viper.SetDefault("remote.version", remote.DefaultVersion)
	viper.SetDefault("remote.poll-interval", remote.DefaultPollInterval)
	viper.SetDefault("remote.max-wait", remote.DefaultMaxWait)
	viper.SetDefault("workspace.dir", filepath.Join(base, "workspace"))
	viper.SetDefault("workspace.scratch-max-age", workspace.DefaultScratchMaxAge)
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".varscore"
	}
	return filepath.Join(home, ".varscore")
}

// New returns the current settings, viper defaults merged with the
// config file and environment.
func New() (Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
