package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is everything one backfill run needs. Values come from an optional
// YAML file (CONFIG_FILE) and are then overridden by environment variables.
type Config struct {
	Table            string   `yaml:"table" validate:"required"`
	MissingAttribute string   `yaml:"missing_attribute" validate:"required"`
	TargetAttribute  string   `yaml:"target_attribute"`
	KeyAttributes    []string `yaml:"key_attributes" validate:"required,min=1,max=2,dive,required"`
	SourceAttribute  string   `yaml:"source_attribute" validate:"required"`

	FirstPageLimit    int32 `yaml:"first_page_limit" validate:"gte=1"`
	PageLimit         int32 `yaml:"page_limit" validate:"gte=1"`
	UpdateConcurrency int   `yaml:"update_concurrency" validate:"gte=1,lte=64"`
	ConsistentRead    bool  `yaml:"consistent_read"`

	AWS     AWSConf     `yaml:"aws"`
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
	Ledger  LedgerConf  `yaml:"ledger"`
}

type AWSConf struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConf struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	File   string `yaml:"file"`
}

type MetricsConf struct {
	DatadogAddr string `yaml:"datadog_addr"`
	Namespace   string `yaml:"namespace"`
}

type LedgerConf struct {
	DSN string `yaml:"dsn"`
}

func defaults() Config {
	return Config{
		SourceAttribute:   "arn",
		FirstPageLimit:    50,
		PageLimit:         100,
		UpdateConcurrency: 1,
		Logging: LoggingConf{
			Level:  "info",
			Format: "console",
			File:   "update.log",
		},
		Metrics: MetricsConf{Namespace: "backfill."},
	}
}

// Load builds the configuration from CONFIG_FILE (if set) and the environment, then validates it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.TargetAttribute == "" {
		cfg.TargetAttribute = cfg.MissingAttribute
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.Table, "TABLE_NAME")
	setString(&cfg.MissingAttribute, "MISSING_ATTRIBUTE")
	setString(&cfg.TargetAttribute, "TARGET_ATTRIBUTE")
	setString(&cfg.SourceAttribute, "SOURCE_ATTRIBUTE")
	if v, ok := lookup("KEY_ATTRIBUTES"); ok {
		cfg.KeyAttributes = splitList(v)
	}

	setString(&cfg.AWS.Region, "AWS_REGION")
	setString(&cfg.AWS.Endpoint, "AWS_ENDPOINT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		// An explicitly empty LOG_FILE turns file output off.
		cfg.Logging.File = strings.TrimSpace(v)
	}
	setString(&cfg.Metrics.DatadogAddr, "DATADOG_ADDR")
	setString(&cfg.Metrics.Namespace, "METRICS_NAMESPACE")
	setString(&cfg.Ledger.DSN, "SQL_DSN")

	if v, ok := lookup("FIRST_PAGE_LIMIT"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid FIRST_PAGE_LIMIT %q: %w", v, err)
		}
		cfg.FirstPageLimit = int32(n)
	}
	if v, ok := lookup("PAGE_LIMIT"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid PAGE_LIMIT %q: %w", v, err)
		}
		cfg.PageLimit = int32(n)
	}
	if v, ok := lookup("UPDATE_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid UPDATE_CONCURRENCY %q: %w", v, err)
		}
		cfg.UpdateConcurrency = n
	}
	if v, ok := lookup("CONSISTENT_READ"); ok {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("invalid CONSISTENT_READ %q: %w", v, err)
		}
		cfg.ConsistentRead = b
	}
	return nil
}

func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks struct tags first, then rules that span fields.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration:\n- %s", strings.Join(msgs, "\n- "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]bool, len(cfg.KeyAttributes))
	for _, k := range cfg.KeyAttributes {
		if seen[k] {
			return fmt.Errorf("invalid configuration: duplicate key attribute %q", k)
		}
		seen[k] = true
	}

	target := cfg.TargetAttribute
	if target == "" {
		target = cfg.MissingAttribute
	}
	if seen[target] {
		return fmt.Errorf("invalid configuration: target attribute %q is part of the key", target)
	}
	if cfg.SourceAttribute == target {
		return fmt.Errorf("invalid configuration: source attribute %q cannot be the target attribute", target)
	}
	return nil
}
