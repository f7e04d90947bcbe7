// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/stratastor/diskwiper/internal/constants"
	"github.com/stratastor/logger"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

// Config is the process-wide configuration, loaded once from a YAML file
// with environment-variable and default-value fallback via viper.
type Config struct {
	Server struct {
		Port      int    `mapstructure:"port"`
		LogLevel  string `mapstructure:"logLevel"`
		Daemonize bool   `mapstructure:"daemonize"`
	} `mapstructure:"server"`

	Health struct {
		Interval string `mapstructure:"interval"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"health"`

	Logs struct {
		Path      string `mapstructure:"path"`
		Retention string `mapstructure:"retention"`
		Output    string `mapstructure:"output"` // stdout or file
	} `mapstructure:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"`
	} `mapstructure:"logger"`

	// Wipe configures the wipe engine: defaults applied when a request
	// omits a field, the tool paths used to probe and act on devices, and
	// the ceiling on how many wipes may run concurrently.
	Wipe struct {
		DefaultMethod string `mapstructure:"defaultMethod"` // zeros|ones|random|dod|bsi|fast_clear
		DefaultPasses int    `mapstructure:"defaultPasses"`
		MaxConcurrent int    `mapstructure:"maxConcurrent"`
		ToolTimeout   string `mapstructure:"toolTimeout"`

		SmartctlPath   string `mapstructure:"smartctlPath"`
		NvmePath       string `mapstructure:"nvmePath"`
		BlkdiscardPath string `mapstructure:"blkdiscardPath"`
		HdparmPath     string `mapstructure:"hdparmPath"`
		LsblkPath      string `mapstructure:"lsblkPath"`

		StateDir   string `mapstructure:"stateDir"`
		ReportsDir string `mapstructure:"reportsDir"`
	} `mapstructure:"wipe"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Port    int    `mapstructure:"port"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`

	// Events configures the in-process wipe-progress event bus: how much
	// is buffered in memory before spilling to disk, and which
	// levels/categories are retained.
	Events struct {
		Profile        string `mapstructure:"profile"` // default|high-throughput|low-latency|minimal
		BufferSize     *int   `mapstructure:"bufferSize"`
		FlushThreshold *int   `mapstructure:"flushThreshold"`
		BatchSize      *int   `mapstructure:"batchSize"`
		BatchTimeout   *int   `mapstructure:"batchTimeout"` // seconds
		MaxFileSize    *int64 `mapstructure:"maxFileSize"`
	} `mapstructure:"events"`

	Development struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"development"`

	Environment string `mapstructure:"environment"`
}

// LoadConfig loads the configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		viper.Reset()
		viper.SetConfigType("yaml")

		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			// 1. Priority: Explicit path from command line
			configPath = configFilePath
		} else if envPath := os.Getenv("DISKWIPER_CONFIG"); envPath != "" {
			// 2. Priority: Environment variable
			configPath = envPath
		} else {
			// 3. Priority: Default config dir (system-wide as root, per-user otherwise)
			configPath = systemConfigPath
		}

		l.Info("Using config file", "path", configPath)

		if absPath, err := filepath.Abs(configPath); err == nil {
			configPath = absPath
		}

		viper.SetConfigFile(configPath)

		viper.SetDefault("environment", "dev")
		viper.SetDefault("server.port", 8042)
		viper.SetDefault("server.logLevel", "debug")
		viper.SetDefault("server.daemonize", false)
		viper.SetDefault("health.interval", "30s")
		viper.SetDefault("health.endpoint", "/health")
		viper.SetDefault("logs.path", "/var/log/diskwiper/diskwiper.log")
		viper.SetDefault("logs.retention", "7d")
		viper.SetDefault("logs.output", "stdout")
		viper.SetDefault("logger.logLevel", "debug")
		viper.SetDefault("logger.enableSentry", false)
		viper.SetDefault("logger.sentryDSN", "")

		viper.SetDefault("wipe.defaultMethod", "zeros")
		viper.SetDefault("wipe.defaultPasses", 1)
		viper.SetDefault("wipe.maxConcurrent", 4)
		viper.SetDefault("wipe.toolTimeout", "30s")
		viper.SetDefault("wipe.smartctlPath", "smartctl")
		viper.SetDefault("wipe.nvmePath", "nvme")
		viper.SetDefault("wipe.blkdiscardPath", "blkdiscard")
		viper.SetDefault("wipe.hdparmPath", "hdparm")
		viper.SetDefault("wipe.lsblkPath", "lsblk")
		viper.SetDefault("wipe.stateDir", GetStateDir())
		viper.SetDefault("wipe.reportsDir", GetReportsDir())

		viper.SetDefault("metrics.enabled", true)
		viper.SetDefault("metrics.port", 9042)
		viper.SetDefault("metrics.path", "/metrics")

		viper.SetDefault("events.profile", "default")

		viper.SetDefault("development.enabled", false)

		viper.AutomaticEnv()
		viper.SetEnvPrefix("DISKWIPER")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err = viper.ReadInConfig()

		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				l.Info(
					"Config file not found, creating default at system path",
					"path",
					systemConfigPath,
				)

				if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
					l.Error("Failed to create config directory", "err", err)
				}

				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
				configPath = systemConfigPath

				if err := SaveConfig(systemConfigPath); err != nil {
					l.Error("Failed to save default configuration", "err", err)
				}
			} else {
				l.Error("Error reading config file", "err", err)

				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
			}
		} else {
			l.Info("Config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to parse configuration", "err", err)
			} else {
				instance = &cfg
			}
		}

		if instance.Wipe.MaxConcurrent < 1 {
			l.Warn("wipe.maxConcurrent below 1, clamping to 1")
			instance.Wipe.MaxConcurrent = 1
		}

		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", instance))
	})

	return instance
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		if os.Geteuid() == 0 {
			if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
				return fmt.Errorf("failed to create system config directory: %w", err)
			}
			path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			userConfigDir := filepath.Join(home, ".diskwiper")
			if err := os.MkdirAll(userConfigDir, 0755); err != nil {
				return fmt.Errorf("failed to create user config directory: %w", err)
			}
			path = filepath.Join(userConfigDir, constants.ConfigFileName)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	configPath = path

	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
