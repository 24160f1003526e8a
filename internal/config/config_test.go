package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code-scanner/internal/report"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "data.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Session.HistorySize)
	assert.Equal(t, 60*time.Second, cfg.Scanner.Timeout)
	assert.Equal(t, report.EnvelopeChatCompletions, cfg.Scanner.ScannerConfig().Envelope)
	assert.Error(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CODESCAN_SCANNER_API_KEY", "secret")
	t.Setenv("CODESCAN_SCANNER_ENVELOPE", "responses")
	t.Setenv("CODESCAN_SESSION_HISTORY_SIZE", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	sc := cfg.Scanner.ScannerConfig()
	assert.Equal(t, "secret", sc.APIKey)
	assert.Equal(t, report.EnvelopeResponses, sc.Envelope)
	assert.Equal(t, 3, cfg.Session.HistorySize)
}

func TestLoad_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  address: \":9090\"\nscanner:\n  api_key: from-file\n  timeout: 5s\n")
	require.NoError(t, os.WriteFile(file, content, 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "from-file", cfg.Scanner.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Scanner.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("CODESCAN_SCANNER_ENVELOPE", "soap")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLogConfig_Apply(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	LogConfig{Level: "debug", Format: "text"}.Apply()
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	LogConfig{Level: "bogus"}.Apply()
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
