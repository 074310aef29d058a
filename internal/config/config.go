// Package config loads run configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/training"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RPL_"

type Config struct {
	Data     Data     `yaml:"data"`
	Labeling Labeling `yaml:"labeling"`
	Split    Split    `yaml:"split"`
	Model    Model    `yaml:"model"`
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Log      Log      `yaml:"log"`
}

type Data struct {
	TransactionsPath string `yaml:"transactions_path"`
	OutputDir        string `yaml:"output_dir"`
}

type Labeling struct {
	HorizonDays int `yaml:"horizon_days"`
}

type Split struct {
	HoldoutFraction float64 `yaml:"holdout_fraction"`
	Seed            int64   `yaml:"seed"`
}

type Model struct {
	ArtifactPath string  `yaml:"artifact_path"`
	C            float64 `yaml:"c"`
	MaxIter      int     `yaml:"max_iter"`
	LearningRate float64 `yaml:"learning_rate"`
	Tolerance    float64 `yaml:"tolerance"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins lists extra browser origins for /ws/predict. Same-host
	// and origin-less clients are always accepted; "*" accepts any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Storage DSNs are optional; an empty DSN selects the in-memory store.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type Log struct {
	Mode string `yaml:"mode"`
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	return &Config{
		Data: Data{
			TransactionsPath: "data/transactions.csv",
			OutputDir:        "output",
		},
		Labeling: Labeling{HorizonDays: 90},
		Split: Split{
			HoldoutFraction: training.DefaultHoldoutFraction,
			Seed:            training.DefaultSeed,
		},
		Model: Model{
			ArtifactPath: "output/model.json",
			C:            model.DefaultC,
			MaxIter:      model.DefaultMaxIter,
			LearningRate: model.DefaultLearningRate,
			Tolerance:    model.DefaultTolerance,
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: Storage{RunMigrations: true},
		Log:     Log{Mode: "dev"},
	}
}

// Load reads the YAML file at path over the defaults and applies environment overrides.
// An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from RPL_* variables returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TRANSACTIONS_PATH": &c.Data.TransactionsPath,
		"OUTPUT_DIR":        &c.Data.OutputDir,
		"ARTIFACT_PATH":     &c.Model.ArtifactPath,
		"SERVER_ADDR":       &c.Server.Addr,
		"POSTGRES_DSN":      &c.Storage.PostgresDSN,
		"CLICKHOUSE_DSN":    &c.Storage.ClickhouseDSN,
		"LOG_MODE":          &c.Log.Mode,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"HORIZON_DAYS":   &c.Labeling.HorizonDays,
		"MODEL_MAX_ITER": &c.Model.MaxIter,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"HOLDOUT_FRACTION":    &c.Split.HoldoutFraction,
		"MODEL_C":             &c.Model.C,
		"MODEL_LEARNING_RATE": &c.Model.LearningRate,
	}
	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Split.Seed = seed
	}
	if v, ok := lookup(EnvPrefix + "RUN_MIGRATIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRUN_MIGRATIONS: %w", EnvPrefix, err)
		}
		c.Storage.RunMigrations = b
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if v, ok := lookup(EnvPrefix + "SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Server.ShutdownTimeout = d
	}
	return nil
}

// Validate checks ranges that would otherwise fail deep inside a stage.
func (c *Config) Validate() error {
	if c.Labeling.HorizonDays <= 0 {
		return fmt.Errorf("labeling.horizon_days must be positive, got %d", c.Labeling.HorizonDays)
	}
	if err := c.SplitConfig().Validate(); err != nil {
		return err
	}
	if c.Model.C <= 0 || c.Model.MaxIter <= 0 || c.Model.LearningRate <= 0 {
		return fmt.Errorf("model parameters must be positive")
	}
	return nil
}

// SplitConfig returns the trainer split settings.
func (c *Config) SplitConfig() training.SplitConfig {
	return training.SplitConfig{HoldoutFraction: c.Split.HoldoutFraction, Seed: c.Split.Seed}
}

// ModelOptions returns the classifier settings.
func (c *Config) ModelOptions() model.LogisticRegressionOptions {
	return model.LogisticRegressionOptions{
		C:            c.Model.C,
		MaxIter:      c.Model.MaxIter,
		LearningRate: c.Model.LearningRate,
		Tolerance:    c.Model.Tolerance,
	}
}

// DefaultPath returns the config file named by RPL_CONFIG, or config.yaml.
func DefaultPath() string {
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return "config.yaml"
}

// LoadEnvFile loads KEY=VALUE lines from path into the process environment.
// Existing variables are not overridden; a missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}
