package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Tuning.MaxEvals)
	assert.Equal(t, 10, cfg.Tuning.NInitialPoints)
	assert.Equal(t, 5, cfg.Tuning.CVFolds)
	assert.Equal(t, 200, cfg.Dataset.SyntheticRows)
	assert.Equal(t, "out", cfg.Report.OutDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TUNE_MAX_EVALS", "25")
	t.Setenv("TUNE_CV_FOLDS", "3")
	t.Setenv("DATA_PATH", "housing.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 25, cfg.Tuning.MaxEvals)
	assert.Equal(t, 3, cfg.Tuning.CVFolds)
	assert.Equal(t, "housing.csv", cfg.Dataset.Path)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"zero max evals", "TUNE_MAX_EVALS", "0", "TUNE_MAX_EVALS"},
		{"zero initial points", "TUNE_INITIAL_POINTS", "0", "TUNE_INITIAL_POINTS"},
		{"single fold", "TUNE_CV_FOLDS", "1", "TUNE_CV_FOLDS"},
		{"zero estimators", "TUNE_N_ESTIMATORS", "0", "TUNE_N_ESTIMATORS"},
		{"too few synthetic rows", "DATA_SYNTHETIC_ROWS", "3", "DATA_SYNTHETIC_ROWS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
