package capture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/captura/internal/models"
)

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "page.desktop.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte(`<html><head>
		<title> Example Domain </title>
		<meta name="description" content="An example page.">
	</head><body></body></html>`), 0644))

	err := writeManifest(dir, "https://example.com", htmlPath, models.AllDeviceKinds())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	require.NoError(t, err)

	var manifest linkManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "https://example.com", manifest.URL)
	assert.Equal(t, "Example Domain", manifest.Title)
	assert.Equal(t, "An example page.", manifest.Description)
	assert.Equal(t, models.AllDeviceKinds(), manifest.Variants)
}

func TestWriteManifestMissingHTML(t *testing.T) {
	dir := t.TempDir()
	err := writeManifest(dir, "https://example.com", filepath.Join(dir, "absent.html"), models.AllDeviceKinds())
	assert.Error(t, err)
}
