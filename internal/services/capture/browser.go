package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/common"
)

// browserEngine is the run-scoped browser handle. It is shared read-only by
// all concurrently-running link orchestrators: they only use it to derive
// fresh browsing contexts, so no shared mutable rendering state exists
// between variants or links.
type browserEngine interface {
	NewTab() (context.Context, context.CancelFunc)
	Close()
}

// Engine owns the single Chromium instance for a run: one exec allocator and
// one root browser context, both released exactly once by Close.
type Engine struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        arbor.ILogger
	closeOnce     sync.Once
}

// LaunchEngine starts the shared browser engine with Chromium launch
// arguments built from configuration. Launch failure is fatal for the run.
func LaunchEngine(ctx context.Context, config common.ChromiumConfig, logger arbor.ILogger) (*Engine, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if len(config.HostResolverRules) > 0 {
		opts = append(opts, chromedp.Flag("host-resolver-rules", strings.Join(config.HostResolverRules, ",")))
	}
	if config.UseCustomDNS && len(config.DNSServers) > 0 {
		opts = append(opts, chromedp.Flag("dns-server", strings.Join(config.DNSServers, ",")))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Startup probe: a browser that cannot reach about:blank is unusable.
	probeCtx, probeCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser engine failed to launch: %w", err)
	}

	logger.Info().
		Bool("headless", config.Headless).
		Bool("custom_dns", config.UseCustomDNS && len(config.DNSServers) > 0).
		Int("resolver_rules", len(config.HostResolverRules)).
		Msg("Browser engine launched")

	return &Engine{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// NewTab derives a fresh, isolated browsing context from the shared engine.
// The returned cancel releases the context resources; callers close the page
// first via chromedp.Cancel.
func (e *Engine) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(e.browserCtx)
}

// Close shuts the browser engine down. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.browserCancel()
		e.allocCancel()
		e.logger.Debug().Msg("Browser engine closed")
	})
}
