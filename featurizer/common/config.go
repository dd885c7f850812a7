package common

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
)

const DefaultConfigFilePath = "config.json"

const (
	SourceCSV        = "csv"
	SourceClickHouse = "clickhouse"

	SinkFile  = "file"
	SinkQueue = "queue"
)

// InputConfig describes one source of rows. CSV inputs read Path, ClickHouse
// inputs run Query.
type InputConfig struct {
	Name      string `json:"name" mapstructure:"name"`
	Source    string `json:"source" mapstructure:"source"`
	Kind      string `json:"kind" mapstructure:"kind"`
	Path      string `json:"path" mapstructure:"path"`
	Separator string `json:"separator" mapstructure:"separator"`
	Query     string `json:"query" mapstructure:"query"`
}

type ClickHouseConfig struct {
	Address  string `json:"address" mapstructure:"address"`
	Database string `json:"database" mapstructure:"database"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// Config represents the application's configuration structure.
type Config struct {
	LogLevel          string           `json:"log-level" mapstructure:"log-level"`
	Format            string           `json:"format" mapstructure:"format"`
	Mode              string           `json:"mode" mapstructure:"mode"`
	OutputPath        string           `json:"output-path" mapstructure:"output-path"`
	Inputs            []InputConfig    `json:"inputs" mapstructure:"inputs"`
	MaxEvents         int              `json:"max-events" mapstructure:"max-events"`
	TopItems          int              `json:"top-items" mapstructure:"top-items"`
	TopCategories     int              `json:"top-categories" mapstructure:"top-categories"`
	BatchSize         int              `json:"batch-size" mapstructure:"batch-size"`
	Sink              string           `json:"sink" mapstructure:"sink"`
	MiddlewareAddress string           `json:"middleware-address" mapstructure:"middleware-address"`
	OutputExchange    string           `json:"output-exchange" mapstructure:"output-exchange"`
	ClickHouse        ClickHouseConfig `json:"clickhouse" mapstructure:"clickhouse"`
}

var requiredFields = []string{
	"format",
	"mode",
	"output-path",
	"inputs",
}

// field: default value
var optionalFields = map[string]interface{}{
	"log-level":          "INFO",
	"max-events":         400,
	"top-items":          400,
	"top-categories":     100,
	"batch-size":         1000,
	"sink":               SinkFile,
	"middleware-address": "",
	"output-exchange":    "FEATURES",
}

// InitConfig reads configuration from a JSON file and environment variables.
// Environment variables take precedence over the config file.
func InitConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilePath
	}
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	for _, field := range requiredFields {
		v.BindEnv(field)
	}
	for optField, defaultValue := range optionalFields {
		v.SetDefault(optField, defaultValue)
	}
	for _, field := range []string{"clickhouse.address", "clickhouse.database", "clickhouse.username", "clickhouse.password"} {
		v.BindEnv(field)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	for _, field := range requiredFields {
		if !v.IsSet(field) {
			return nil, fmt.Errorf("missing required config field: %s", field)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Settings(); err != nil {
		return err
	}
	if c.MaxEvents <= 0 || c.TopItems <= 0 || c.TopCategories <= 0 || c.BatchSize <= 0 {
		return fmt.Errorf("max-events, top-items, top-categories and batch-size must be positive")
	}

	switch c.Sink {
	case SinkFile:
		if c.OutputPath == "" {
			return fmt.Errorf("missing output-path")
		}
	case SinkQueue:
		if c.MiddlewareAddress == "" || c.OutputExchange == "" {
			return fmt.Errorf("queue sink needs middleware-address and output-exchange")
		}
	default:
		return fmt.Errorf("invalid sink %q", c.Sink)
	}

	if len(c.Inputs) == 0 {
		return fmt.Errorf("no inputs configured")
	}
	for i, in := range c.Inputs {
		if _, err := events.ParseKind(in.Kind); err != nil {
			return fmt.Errorf("input %d (%s): %w", i, in.Name, err)
		}
		switch in.Source {
		case SourceCSV:
			if in.Path == "" {
				return fmt.Errorf("input %d (%s): csv source without path", i, in.Name)
			}
			if len([]rune(in.Separator)) > 1 {
				return fmt.Errorf("input %d (%s): separator must be a single character", i, in.Name)
			}
		case SourceClickHouse:
			if in.Query == "" {
				return fmt.Errorf("input %d (%s): clickhouse source without query", i, in.Name)
			}
			if c.ClickHouse.Address == "" {
				return fmt.Errorf("input %d (%s): clickhouse address not configured", i, in.Name)
			}
		default:
			return fmt.Errorf("input %d (%s): invalid source %q", i, in.Name, in.Source)
		}
	}
	return nil
}
