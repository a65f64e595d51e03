package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Tuning struct {
		MaxEvals       int   `env:"TUNE_MAX_EVALS" envDefault:"50"`
		NInitialPoints int   `env:"TUNE_INITIAL_POINTS" envDefault:"10"`
		Seed           int64 `env:"TUNE_SEED" envDefault:"0"`
		CVFolds        int   `env:"TUNE_CV_FOLDS" envDefault:"5"`
		NEstimators    int   `env:"TUNE_N_ESTIMATORS" envDefault:"50"`
	}
	Dataset struct {
		// Path to a CSV file whose last column is the target. Empty means
		// the synthetic dataset is used.
		Path          string `env:"DATA_PATH"`
		SyntheticRows int    `env:"DATA_SYNTHETIC_ROWS" envDefault:"200"`
		SyntheticSeed int64  `env:"DATA_SYNTHETIC_SEED" envDefault:"0"`
	}
	Report struct {
		OutDir string `env:"REPORT_OUT_DIR" envDefault:"out"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tuning.MaxEvals < 1 {
		return fmt.Errorf("config: TUNE_MAX_EVALS must be at least 1, got %d", c.Tuning.MaxEvals)
	}
	if c.Tuning.NInitialPoints < 1 {
		return fmt.Errorf("config: TUNE_INITIAL_POINTS must be at least 1, got %d", c.Tuning.NInitialPoints)
	}
	if c.Tuning.CVFolds < 2 {
		return fmt.Errorf("config: TUNE_CV_FOLDS must be at least 2, got %d", c.Tuning.CVFolds)
	}
	if c.Tuning.NEstimators < 1 {
		return fmt.Errorf("config: TUNE_N_ESTIMATORS must be at least 1, got %d", c.Tuning.NEstimators)
	}
	if c.Dataset.Path == "" && c.Dataset.SyntheticRows < c.Tuning.CVFolds {
		return fmt.Errorf("config: DATA_SYNTHETIC_ROWS %d cannot fill %d folds", c.Dataset.SyntheticRows, c.Tuning.CVFolds)
	}
	return nil
}
