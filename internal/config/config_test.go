package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/signboard"},
		Auth:   AuthConfig{LoginRatePerMinute: 20},
	}
	require.NoError(t, valid.Validate())

	t.Run("bad environment", func(t *testing.T) {
		cfg := *valid
		cfg.App.Environment = "qa"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := *valid
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty data path", func(t *testing.T) {
		cfg := *valid
		cfg.Data.BasePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero login rate", func(t *testing.T) {
		cfg := *valid
		cfg.Auth.LoginRatePerMinute = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestDataConfig_Paths(t *testing.T) {
	d := DataConfig{BasePath: "/var/lib/signboard"}
	assert.Equal(t, "/var/lib/signboard/documents", d.DocumentStorePath())
	assert.Equal(t, "/var/lib/signboard/access-log.db", d.AccessLogPath())
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("", "UNSET_DURATION_KEY", "15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = parseDurationValue("1h", "UNSET_DURATION_KEY", "15m")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = parseDurationValue("soon", "UNSET_DURATION_KEY", "15m")
	assert.Error(t, err)
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins("*"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		splitOrigins("https://a.example, https://b.example,"),
	)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\nSIGNBOARD_TEST_KEY=from-file\nSIGNBOARD_TEST_QUOTED=\"quoted\"\n"), 0o644))

	t.Setenv("SIGNBOARD_TEST_KEY", "from-env")

	require.NoError(t, loadEnvFile(envPath))

	// Existing environment wins over the file.
	assert.Equal(t, "from-env", os.Getenv("SIGNBOARD_TEST_KEY"))
	assert.Equal(t, "quoted", os.Getenv("SIGNBOARD_TEST_QUOTED"))

	t.Cleanup(func() { _ = os.Unsetenv("SIGNBOARD_TEST_QUOTED") })
}
