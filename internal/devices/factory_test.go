package devices

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/models"
)

func testDevicesConfig() common.DevicesConfig {
	return common.NewDefaultConfig().Devices
}

func TestLookupPreset(t *testing.T) {
	info, ok := LookupPreset("iPhone X")
	require.True(t, ok)
	assert.Equal(t, int64(375), info.Width)
	assert.True(t, info.Mobile)

	_, ok = LookupPreset("iphone x")
	assert.True(t, ok, "lookup should be case-insensitive")

	_, ok = LookupPreset("Nokia 3310")
	assert.False(t, ok)

	_, ok = LookupPreset("")
	assert.False(t, ok)
}

func TestPresetNamesSortedForDiagnostics(t *testing.T) {
	names := PresetNames()
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "iPhone X")
}

func TestBuildContextOptions_PresetWithOverrides(t *testing.T) {
	cfg := testDevicesConfig()
	cfg.Mobile.Descriptor = "iPhone X"
	cfg.Mobile.Viewport = nil
	cfg.Mobile.Locale = "de-DE"
	cfg.Mobile.Timezone = "Europe/Berlin"
	cfg.Mobile.ColorScheme = "dark"

	factory := NewFactory(cfg, arbor.NewLogger())
	profile := factory.BuildContextOptions(models.DeviceMobile)

	// Preset supplies viewport, scale, UA and touch flags.
	assert.Equal(t, int64(375), profile.Viewport.Width)
	assert.Equal(t, int64(812), profile.Viewport.Height)
	assert.True(t, profile.Mobile)
	assert.NotEmpty(t, profile.UserAgent)

	// Kind overrides always win.
	assert.Equal(t, "de-DE", profile.Locale)
	assert.Equal(t, "Europe/Berlin", profile.Timezone)
	assert.Equal(t, models.ColorSchemeDark, profile.ColorScheme)
}

func TestBuildContextOptions_ExplicitViewportWinsOverPreset(t *testing.T) {
	cfg := testDevicesConfig()
	cfg.Tablet.Descriptor = "iPad Pro"
	cfg.Tablet.Viewport = &common.ViewportConfig{Width: 800, Height: 600}

	factory := NewFactory(cfg, arbor.NewLogger())
	profile := factory.BuildContextOptions(models.DeviceTablet)

	assert.Equal(t, int64(800), profile.Viewport.Width)
	assert.Equal(t, int64(600), profile.Viewport.Height)
}

func TestBuildContextOptions_UnknownDescriptorFallsBack(t *testing.T) {
	cfg := testDevicesConfig()
	cfg.Desktop.Descriptor = "No Such Device"
	cfg.Desktop.Viewport = &common.ViewportConfig{Width: 1280, Height: 720}
	cfg.Desktop.UserAgent = "fallback-agent"

	factory := NewFactory(cfg, arbor.NewLogger())
	profile := factory.BuildContextOptions(models.DeviceDesktop)

	assert.Equal(t, int64(1280), profile.Viewport.Width)
	assert.Equal(t, "fallback-agent", profile.UserAgent)
	assert.False(t, profile.Mobile)
}

func TestBuildContextOptions_WarnsOncePerKind(t *testing.T) {
	cfg := testDevicesConfig()
	cfg.Desktop.Descriptor = "No Such Device"
	cfg.Mobile.Descriptor = "Also Missing"

	factory := NewFactory(cfg, arbor.NewLogger())

	factory.BuildContextOptions(models.DeviceDesktop)
	factory.BuildContextOptions(models.DeviceDesktop)
	factory.BuildContextOptions(models.DeviceMobile)

	factory.warnMu.Lock()
	defer factory.warnMu.Unlock()
	assert.True(t, factory.warned[models.DeviceDesktop])
	assert.True(t, factory.warned[models.DeviceMobile])
	assert.Len(t, factory.warned, 2)
}

func TestBuildContextOptions_ScaleFactorDefault(t *testing.T) {
	cfg := testDevicesConfig()
	cfg.Desktop.Descriptor = ""
	cfg.Desktop.ScaleFactor = 0

	factory := NewFactory(cfg, arbor.NewLogger())
	profile := factory.BuildContextOptions(models.DeviceDesktop)

	assert.Equal(t, float64(1), profile.ScaleFactor)
}
