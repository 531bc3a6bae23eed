package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFilesDefaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "results", config.Capture.OutputDir)
	assert.Equal(t, "links.txt", config.Capture.LinksFile)
	assert.True(t, config.Capture.Parallel)
	assert.Equal(t, 30000, config.Capture.PrimaryNavigationTimeoutMs)
	assert.Equal(t, 45000, config.Capture.FallbackNavigationTimeoutMs)
	assert.True(t, config.Chromium.Headless)
	assert.True(t, config.History.Enabled)
	assert.Equal(t, "iPhone X", config.Devices.Mobile.Descriptor)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	first := writeConfig(t, "base.toml", `
[capture]
output_dir = "captures"
parallel = false
`)
	second := writeConfig(t, "override.toml", `
[capture]
output_dir = "other"
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	assert.Equal(t, "other", config.Capture.OutputDir)
	// Values only the first file sets still apply.
	assert.False(t, config.Capture.Parallel)
}

func TestLoadFromFilesMissingFileFails(t *testing.T) {
	_, err := LoadFromFiles("does-not-exist.toml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAPTURA_OUTPUT_DIR", "/tmp/captures")
	t.Setenv("CAPTURA_PARALLEL", "false")
	t.Setenv("CAPTURA_PRIMARY_NAVIGATION_TIMEOUT_MS", "60000")
	t.Setenv("CAPTURA_CHROMIUM_HOST_RESOLVER_RULES", "MAP example.com 127.0.0.1; MAP other.com 10.0.0.1")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/captures", config.Capture.OutputDir)
	assert.False(t, config.Capture.Parallel)
	assert.Equal(t, 60000, config.Capture.PrimaryNavigationTimeoutMs)
	assert.Equal(t, []string{"MAP example.com 127.0.0.1", "MAP other.com 10.0.0.1"}, config.Chromium.HostResolverRules)
}

func TestApplyFlagOverridesBeatEverything(t *testing.T) {
	t.Setenv("CAPTURA_OUTPUT_DIR", "/tmp/env-dir")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	ApplyFlagOverrides(config, "/tmp/flag-dir", "custom-links.yaml")
	assert.Equal(t, "/tmp/flag-dir", config.Capture.OutputDir)
	assert.Equal(t, "custom-links.yaml", config.Capture.LinksFile)

	// Empty flags leave the resolved values alone.
	ApplyFlagOverrides(config, "", "")
	assert.Equal(t, "/tmp/flag-dir", config.Capture.OutputDir)
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Level = "loud"
	assert.Error(t, Validate(config))

	config = NewDefaultConfig()
	config.Capture.OutputDir = ""
	assert.Error(t, Validate(config))

	config = NewDefaultConfig()
	config.Devices.Desktop.ColorScheme = "sepia"
	assert.Error(t, Validate(config))
}

func TestLinkRateLimitDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), CaptureConfig{}.LinkRateLimitDuration())
	assert.Equal(t, 500*time.Millisecond, CaptureConfig{LinkRateLimit: "500ms"}.LinkRateLimitDuration())
	assert.Equal(t, time.Duration(0), CaptureConfig{LinkRateLimit: "soon"}.LinkRateLimitDuration())
	assert.Equal(t, time.Duration(0), CaptureConfig{LinkRateLimit: "-1s"}.LinkRateLimitDuration())
}
