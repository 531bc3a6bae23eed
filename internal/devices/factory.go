// Package devices resolves device kinds into concrete rendering-context
// profiles, preferring named presets and falling back to configured values.
package devices

import (
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/models"
)

// Factory builds device profiles for the closed set of device kinds. A
// warning is emitted exactly once per kind per process lifetime when a
// descriptor lookup fails.
type Factory struct {
	config common.DevicesConfig
	logger arbor.ILogger

	warnMu sync.Mutex
	warned map[models.DeviceKind]bool
}

// NewFactory creates a device profile factory
func NewFactory(config common.DevicesConfig, logger arbor.ILogger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
		warned: make(map[models.DeviceKind]bool),
	}
}

// BuildContextOptions resolves a device kind into an immutable profile.
// Preset fields are adopted field-by-field with the configured fallback
// consulted for anything the preset leaves unspecified; kind overrides
// (locale, timezone, color scheme) are applied unconditionally, while
// viewport and screen overrides win only when explicitly present.
func (f *Factory) BuildContextOptions(kind models.DeviceKind) models.DeviceProfile {
	dc := f.deviceConfig(kind)
	fallback := f.fallbackProfile(kind, dc)

	profile := fallback
	if info, ok := LookupPreset(dc.Descriptor); ok {
		if info.Width > 0 && info.Height > 0 {
			profile.Viewport = models.Viewport{Width: info.Width, Height: info.Height}
			profile.Screen = profile.Viewport
		}
		if info.Scale > 0 {
			profile.ScaleFactor = info.Scale
		}
		if info.UserAgent != "" {
			profile.UserAgent = info.UserAgent
		}
		profile.Mobile = info.Mobile
		profile.Touch = info.Touch
	} else if dc.Descriptor != "" {
		f.warnOnce(kind, dc.Descriptor)
	}

	// Kind overrides: locale, timezone and color scheme always win;
	// viewport/screen only when explicitly configured.
	profile.Locale = dc.Locale
	profile.Timezone = dc.Timezone
	profile.ColorScheme = models.ColorScheme(dc.ColorScheme)
	if dc.Viewport != nil {
		profile.Viewport = models.Viewport{Width: dc.Viewport.Width, Height: dc.Viewport.Height}
	}
	if dc.Screen != nil {
		profile.Screen = models.Viewport{Width: dc.Screen.Width, Height: dc.Screen.Height}
	}
	if profile.Screen.Width == 0 || profile.Screen.Height == 0 {
		profile.Screen = profile.Viewport
	}

	return profile
}

func (f *Factory) deviceConfig(kind models.DeviceKind) common.DeviceConfig {
	switch kind {
	case models.DeviceTablet:
		return f.config.Tablet
	case models.DeviceMobile:
		return f.config.Mobile
	default:
		return f.config.Desktop
	}
}

// fallbackProfile builds the explicit fallback profile for a kind from
// configuration, with built-in defaults for anything left unset.
func (f *Factory) fallbackProfile(kind models.DeviceKind, dc common.DeviceConfig) models.DeviceProfile {
	profile := models.DeviceProfile{
		ScaleFactor: dc.ScaleFactor,
		UserAgent:   dc.UserAgent,
		Mobile:      dc.Mobile,
		Touch:       dc.Touch,
	}

	if dc.Viewport != nil {
		profile.Viewport = models.Viewport{Width: dc.Viewport.Width, Height: dc.Viewport.Height}
	} else {
		profile.Viewport = defaultViewport(kind)
	}
	if dc.Screen != nil {
		profile.Screen = models.Viewport{Width: dc.Screen.Width, Height: dc.Screen.Height}
	} else {
		profile.Screen = profile.Viewport
	}
	if profile.ScaleFactor <= 0 {
		profile.ScaleFactor = 1
	}

	return profile
}

func defaultViewport(kind models.DeviceKind) models.Viewport {
	switch kind {
	case models.DeviceTablet:
		return models.Viewport{Width: 1024, Height: 1366}
	case models.DeviceMobile:
		return models.Viewport{Width: 375, Height: 812}
	default:
		return models.Viewport{Width: 1920, Height: 1080}
	}
}

// warnOnce logs a preset-lookup failure once per kind, never re-warning even
// when the factory is called again for the same kind.
func (f *Factory) warnOnce(kind models.DeviceKind, descriptor string) {
	f.warnMu.Lock()
	defer f.warnMu.Unlock()

	if f.warned[kind] {
		return
	}
	f.warned[kind] = true

	f.logger.Warn().
		Str("device", string(kind)).
		Str("descriptor", descriptor).
		Str("known", strings.Join(PresetNames(), ", ")).
		Msg("Device preset not found, using fallback profile")
}
