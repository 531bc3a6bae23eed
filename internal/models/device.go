package models

// DeviceKind identifies one of the three emulated device classes. The set is
// closed: every run captures exactly these three variants per URL.
type DeviceKind string

const (
	DeviceDesktop DeviceKind = "desktop"
	DeviceTablet  DeviceKind = "tablet"
	DeviceMobile  DeviceKind = "mobile"
)

// AllDeviceKinds returns the device kinds in capture order.
func AllDeviceKinds() []DeviceKind {
	return []DeviceKind{DeviceDesktop, DeviceTablet, DeviceMobile}
}

// ColorScheme is the emulated prefers-color-scheme media feature value.
// Empty means no emulation override.
type ColorScheme string

const (
	ColorSchemeDark         ColorScheme = "dark"
	ColorSchemeLight        ColorScheme = "light"
	ColorSchemeNoPreference ColorScheme = "no-preference"
)

// Viewport holds pixel dimensions for a viewport or screen.
type Viewport struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// DeviceProfile is the fully resolved rendering-context configuration for one
// device kind. Immutable once built by the device factory.
type DeviceProfile struct {
	Viewport    Viewport    `json:"viewport"`
	Screen      Viewport    `json:"screen"`
	ScaleFactor float64     `json:"scale_factor"`
	Locale      string      `json:"locale"`
	Timezone    string      `json:"timezone"`
	ColorScheme ColorScheme `json:"color_scheme"`
	UserAgent   string      `json:"user_agent"`
	Mobile      bool        `json:"mobile"`
	Touch       bool        `json:"touch"`
}

// VariantTask describes one device-specific capture of one URL. On success it
// produces exactly one HTML file and one screenshot file in Dir.
type VariantTask struct {
	URL            string
	Dir            string
	HTMLFile       string
	ScreenshotFile string
	MarkdownFile   string
	Profile        DeviceProfile
	Label          DeviceKind
}
