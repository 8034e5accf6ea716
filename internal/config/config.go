package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/exchange"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/matching"
)

const (
	App       = "property-matching"
	envPrefix = "PM"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type StorageConfig struct {
	Driver         string `mapstructure:"driver"`
	PropertiesPath string `mapstructure:"properties_path"`
	SQLitePath     string `mapstructure:"sqlite_path"`
}

type ScoringConfig struct {
	WeightsPath string            `mapstructure:"weights_path"`
	CurrentYear int               `mapstructure:"current_year"`
	Weights     *matching.Weights `mapstructure:"-"`
}

type ExchangeConfig struct {
	Synonyms exchange.SynonymGroups `mapstructure:"synonyms"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// legacyEnv keeps the environment variables of the first API release working.
var legacyEnv = map[string]string{
	"server.address":         "API_ADDRESS",
	"storage.properties_path": "PROPERTIES_PATH",
	"scoring.weights_path":    "WEIGHTS_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.properties_path", "data/listings.json")
	v.SetDefault("storage.sqlite_path", "data/listings.db")
	v.SetDefault("scoring.weights_path", "")
	v.SetDefault("scoring.current_year", matching.DefaultCurrentYear)
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// New prepares a viper instance with defaults and env bindings.
// path may be empty, then property-matching.yaml is looked up in the working directory.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(App)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit path must exist, the default one is optional
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from path (optional), environment and defaults.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// dimensions missing from the inline table keep their default weight
	if sub := v.Sub("scoring.weights"); sub != nil {
		w := matching.DefaultWeights()
		if err := sub.Unmarshal(&w); err != nil {
			return nil, fmt.Errorf("unmarshal scoring.weights: %w", err)
		}
		cfg.Scoring.Weights = &w
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q", c.Storage.Driver)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode: unsupported mode %q", c.Server.Mode)
	}
	if c.Scoring.Weights != nil {
		if err := c.Scoring.Weights.Validate(); err != nil {
			return fmt.Errorf("scoring.weights: %w", err)
		}
	}
	return nil
}

// ResolveWeights picks inline weights (merged over the defaults), then the
// weights file, then defaults.
// A broken weights file is reported but never fatal.
func (c *Config) ResolveWeights() (matching.Weights, error) {
	if c.Scoring.Weights != nil {
		return *c.Scoring.Weights, nil
	}
	if c.Scoring.WeightsPath == "" {
		return matching.DefaultWeights(), nil
	}
	return matching.LoadWeightsFromFile(c.Scoring.WeightsPath)
}

// Synonyms returns the configured synonym groups or the built-in ones.
func (c *Config) Synonyms() exchange.SynonymGroups {
	if len(c.Exchange.Synonyms) == 0 {
		return exchange.DefaultSynonyms()
	}
	return c.Exchange.Synonyms
}
