package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"`
	Logging     LoggingConfig `toml:"logging"`
	Capture     CaptureConfig `toml:"capture"`
	Chromium    ChromiumConfig `toml:"chromium"`
	History     HistoryConfig `toml:"history"`
	Devices     DevicesConfig `toml:"devices"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// CaptureConfig controls the run coordinator and the per-variant state
// machine. All *_ms values are milliseconds; zero or negative disables the
// corresponding wait.
type CaptureConfig struct {
	OutputDir                   string `toml:"output_dir" validate:"required"`
	LinksFile                   string `toml:"links_file"`
	Parallel                    bool   `toml:"parallel"`
	PrimaryNavigationTimeoutMs  int    `toml:"primary_navigation_timeout_ms" validate:"min=0"`
	FallbackNavigationTimeoutMs int    `toml:"fallback_navigation_timeout_ms" validate:"min=0"`
	PostNavigationIdleMs        int    `toml:"post_navigation_idle_ms"`
	StabilizationDelayMs        int    `toml:"stabilization_delay_ms"`
	ContentReadyTimeoutMs       int    `toml:"content_ready_timeout_ms"`
	Markdown                    bool   `toml:"markdown"`
	// MaxConcurrentContexts bounds simultaneous browsing contexts across the
	// whole run. Zero keeps the historical unbounded fan-out, which can open
	// 3×len(urls) contexts at once on large link lists.
	MaxConcurrentContexts int    `toml:"max_concurrent_contexts" validate:"min=0"`
	LinkRateLimit         string `toml:"link_rate_limit"` // duration, e.g. "500ms"; empty or 0 disables pacing
	Schedule              string `toml:"schedule"`        // cron expression; empty runs once
}

// LinkRateLimitDuration parses the pacing interval, returning 0 when unset.
func (c CaptureConfig) LinkRateLimitDuration() time.Duration {
	if c.LinkRateLimit == "" {
		return 0
	}
	d, err := time.ParseDuration(c.LinkRateLimit)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ChromiumConfig holds browser engine launch options
type ChromiumConfig struct {
	Headless          bool     `toml:"headless"`
	NoSandbox         bool     `toml:"no_sandbox"`
	DisableGPU        bool     `toml:"disable_gpu"`
	HostResolverRules []string `toml:"host_resolver_rules"`
	UseCustomDNS      bool     `toml:"use_custom_dns"`
	DNSServers        []string `toml:"dns_servers"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ViewportConfig is a width/height pair. A nil pointer in DeviceConfig means
// "not explicitly configured", which matters for override precedence.
type ViewportConfig struct {
	Width  int64 `toml:"width" validate:"min=0"`
	Height int64 `toml:"height" validate:"min=0"`
}

// DeviceConfig describes one device kind: an optional named preset descriptor
// plus a fallback profile and kind overrides.
type DeviceConfig struct {
	Descriptor  string          `toml:"descriptor"`
	Viewport    *ViewportConfig `toml:"viewport"`
	Screen      *ViewportConfig `toml:"screen"`
	ScaleFactor float64         `toml:"scale_factor" validate:"min=0"`
	Locale      string          `toml:"locale"`
	Timezone    string          `toml:"timezone"`
	ColorScheme string          `toml:"color_scheme" validate:"omitempty,oneof=dark light no-preference"`
	UserAgent   string          `toml:"user_agent"`
	Mobile      bool            `toml:"mobile"`
	Touch       bool            `toml:"touch"`
}

type DevicesConfig struct {
	Desktop DeviceConfig `toml:"desktop"`
	Tablet  DeviceConfig `toml:"tablet"`
	Mobile  DeviceConfig `toml:"mobile"`
}

// NewDefaultConfig returns the default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Capture: CaptureConfig{
			OutputDir:                   "results",
			LinksFile:                   "links.txt",
			Parallel:                    true,
			PrimaryNavigationTimeoutMs:  30000,
			FallbackNavigationTimeoutMs: 45000,
			PostNavigationIdleMs:        1500,
			StabilizationDelayMs:        1000,
			ContentReadyTimeoutMs:       15000,
			Markdown:                    false,
			MaxConcurrentContexts:       0,
			LinkRateLimit:               "",
			Schedule:                    "",
		},
		Chromium: ChromiumConfig{
			Headless:   true,
			NoSandbox:  false,
			DisableGPU: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "data/history",
		},
		Devices: DevicesConfig{
			Desktop: DeviceConfig{
				Viewport:    &ViewportConfig{Width: 1920, Height: 1080},
				ScaleFactor: 1,
				Locale:      "en-US",
				Timezone:    "UTC",
				ColorScheme: "light",
			},
			Tablet: DeviceConfig{
				Descriptor:  "iPad Pro",
				Viewport:    &ViewportConfig{Width: 1024, Height: 1366},
				ScaleFactor: 2,
				Locale:      "en-US",
				Timezone:    "UTC",
				ColorScheme: "light",
				Touch:       true,
			},
			Mobile: DeviceConfig{
				Descriptor:  "iPhone X",
				Viewport:    &ViewportConfig{Width: 375, Height: 812},
				ScaleFactor: 3,
				Locale:      "en-US",
				Timezone:    "UTC",
				ColorScheme: "light",
				Mobile:      true,
				Touch:       true,
			},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against its struct validation tags.
func Validate(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CAPTURA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("CAPTURA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CAPTURA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Capture configuration
	if dir := os.Getenv("CAPTURA_OUTPUT_DIR"); dir != "" {
		config.Capture.OutputDir = dir
	}
	if links := os.Getenv("CAPTURA_LINKS_FILE"); links != "" {
		config.Capture.LinksFile = links
	}
	if parallel := os.Getenv("CAPTURA_PARALLEL"); parallel != "" {
		if p, err := strconv.ParseBool(parallel); err == nil {
			config.Capture.Parallel = p
		}
	}
	if v := os.Getenv("CAPTURA_PRIMARY_NAVIGATION_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.Capture.PrimaryNavigationTimeoutMs = ms
		}
	}
	if v := os.Getenv("CAPTURA_FALLBACK_NAVIGATION_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.Capture.FallbackNavigationTimeoutMs = ms
		}
	}
	if v := os.Getenv("CAPTURA_POST_NAVIGATION_IDLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.Capture.PostNavigationIdleMs = ms
		}
	}
	if v := os.Getenv("CAPTURA_STABILIZATION_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.Capture.StabilizationDelayMs = ms
		}
	}
	if v := os.Getenv("CAPTURA_CONTENT_READY_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.Capture.ContentReadyTimeoutMs = ms
		}
	}
	if v := os.Getenv("CAPTURA_MAX_CONCURRENT_CONTEXTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Capture.MaxConcurrentContexts = n
		}
	}
	if v := os.Getenv("CAPTURA_SCHEDULE"); v != "" {
		config.Capture.Schedule = v
	}

	// Chromium configuration
	if v := os.Getenv("CAPTURA_CHROMIUM_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			config.Chromium.Headless = headless
		}
	}
	if v := os.Getenv("CAPTURA_CHROMIUM_HOST_RESOLVER_RULES"); v != "" {
		rules := []string{}
		for _, r := range strings.Split(v, ";") {
			if trimmed := strings.TrimSpace(r); trimmed != "" {
				rules = append(rules, trimmed)
			}
		}
		config.Chromium.HostResolverRules = rules
	}
	if v := os.Getenv("CAPTURA_CHROMIUM_USE_CUSTOM_DNS"); v != "" {
		if dns, err := strconv.ParseBool(v); err == nil {
			config.Chromium.UseCustomDNS = dns
		}
	}
	if v := os.Getenv("CAPTURA_CHROMIUM_DNS_SERVERS"); v != "" {
		servers := []string{}
		for _, s := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				servers = append(servers, trimmed)
			}
		}
		config.Chromium.DNSServers = servers
	}

	// History configuration
	if v := os.Getenv("CAPTURA_HISTORY_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.History.Enabled = enabled
		}
	}
	if v := os.Getenv("CAPTURA_HISTORY_PATH"); v != "" {
		config.History.Path = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, outputDir, linksFile string) {
	if outputDir != "" {
		config.Capture.OutputDir = outputDir
	}
	if linksFile != "" {
		config.Capture.LinksFile = linksFile
	}
}
