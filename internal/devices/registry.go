package devices

import (
	"sort"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// presets is the closed registry of named device descriptors. Names match
// the DevTools device descriptor names carried by chromedp's device package.
var presets = map[string]chromedp.Device{
	"iPad":            device.IPad,
	"iPad Mini":       device.IPadMini,
	"iPad Pro":        device.IPadPro,
	"iPhone 6":        device.IPhone6,
	"iPhone 7":        device.IPhone7,
	"iPhone 8":        device.IPhone8,
	"iPhone 8 Plus":   device.IPhone8Plus,
	"iPhone SE":       device.IPhoneSE,
	"iPhone X":        device.IPhoneX,
	"Pixel 2":         device.Pixel2,
	"Pixel 2 XL":      device.Pixel2XL,
	"Galaxy S5":       device.GalaxyS5,
	"Nexus 7":         device.Nexus7,
	"Nexus 10":        device.Nexus10,
	"Kindle Fire HDX": device.KindleFireHDX,
}

// LookupPreset resolves a descriptor name to its device info. Matching is
// case-insensitive; an unknown or blank name reports false.
func LookupPreset(name string) (device.Info, bool) {
	if name == "" {
		return device.Info{}, false
	}
	if d, ok := presets[name]; ok {
		return d.Device(), true
	}
	for key, d := range presets {
		if strings.EqualFold(key, name) {
			return d.Device(), true
		}
	}
	return device.Info{}, false
}

// PresetNames returns the registry's descriptor names in sorted order, for
// diagnostics.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
