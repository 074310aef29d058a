package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.2, cfg.Split.HoldoutFraction)
	assert.Equal(t, int64(42), cfg.Split.Seed)
	assert.Equal(t, 1.0, cfg.Model.C)
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
data:
  transactions_path: in/tx.csv
labeling:
  horizon_days: 30
server:
  shutdown_timeout: 5s
storage:
  postgres_dsn: postgres://u:p@localhost/db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "in/tx.csv", cfg.Data.TransactionsPath)
	assert.Equal(t, "output", cfg.Data.OutputDir, "unset keys keep defaults")
	assert.Equal(t, 30, cfg.Labeling.HorizonDays)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Storage.PostgresDSN)
	assert.Empty(t, cfg.Storage.ClickhouseDSN)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Labeling.HorizonDays)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labeling: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()

	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"RPL_HORIZON_DAYS":     "45",
		"RPL_HOLDOUT_FRACTION": "0.25",
		"RPL_SEED":             "7",
		"RPL_CLICKHOUSE_DSN":   "clickhouse://localhost:9000/scores",
		"RPL_RUN_MIGRATIONS":   "false",
		"RPL_SHUTDOWN_TIMEOUT": "2s",
		"RPL_ALLOWED_ORIGINS":  "https://app.example, https://admin.example,",
	}))
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Labeling.HorizonDays)
	assert.Equal(t, 0.25, cfg.Split.HoldoutFraction)
	assert.Equal(t, int64(7), cfg.Split.Seed)
	assert.Equal(t, "clickhouse://localhost:9000/scores", cfg.Storage.ClickhouseDSN)
	assert.False(t, cfg.Storage.RunMigrations)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"https://app.example", "https://admin.example"}, cfg.Server.AllowedOrigins)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{"RPL_HORIZON_DAYS": "ninety"}))
	assert.ErrorContains(t, err, "RPL_HORIZON_DAYS")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Labeling.HorizonDays = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Split.HoldoutFraction = 1
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nRPL_TEST_ENV_FILE_A=\"from-file\"\nRPL_TEST_ENV_FILE_B=from-file\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("RPL_TEST_ENV_FILE_B", "from-env")

	LoadEnvFile(path)
	t.Cleanup(func() { os.Unsetenv("RPL_TEST_ENV_FILE_A") })

	assert.Equal(t, "from-file", os.Getenv("RPL_TEST_ENV_FILE_A"))
	assert.Equal(t, "from-env", os.Getenv("RPL_TEST_ENV_FILE_B"), "existing variables win")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("RPL_CONFIG", "")
	assert.Equal(t, "config.yaml", DefaultPath())

	t.Setenv("RPL_CONFIG", "/etc/rpl/config.yaml")
	assert.Equal(t, "/etc/rpl/config.yaml", DefaultPath())
}
