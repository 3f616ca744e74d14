package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/tabrest/tabrest/pkg/resource"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds application-wide configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type APIConfig struct {
	PG            PGConfig              `mapstructure:"pg"`
	ListenAddr    string                `mapstructure:"listenAddr"`
	Schema        string                `mapstructure:"schema"`
	ReadOnly      bool                  `mapstructure:"readOnly"`
	ReflectAll    bool                  `mapstructure:"reflectAll"`
	ExcludeTables []string              `mapstructure:"excludeTables"`
	ViewSpec      string                `mapstructure:"viewSpec"`
	Resources     []resource.Definition `mapstructure:"resources"`
	BasicAuth     map[string]string     `mapstructure:"basicAuth"`
}

type PGConfig struct {
	ConnString string `mapstructure:"connString"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listenAddr"`
}

func DefaultAPIConfig() APIConfig {
	return APIConfig{
		ListenAddr: ":8080",
		ReflectAll: true,
	}
}

// Load reads config from file or environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tabrest")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TABREST")

	v.SetDefault("api.listenAddr", ":8080")
	v.SetDefault("api.reflectAll", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// comma-separated env values decode into slice fields,
	// eg TABREST_API_EXCLUDETABLES=orders,audit_log
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	))

	var cfg Config
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
