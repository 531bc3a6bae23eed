package capture

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/models"
)

// variantRunner is the seam between the link orchestrator and the real
// browser-driven engine, so orchestration is testable without Chrome.
type variantRunner interface {
	label() models.DeviceKind
	run(ctx context.Context) error
}

// variantEngine drives one isolated browsing context through navigation,
// stabilization, content readiness and artifact capture for one device
// profile. It may fail freely; the link orchestrator is the only boundary
// that converts failures into outcome data.
type variantEngine struct {
	engine browserEngine
	task   models.VariantTask
	config common.CaptureConfig
	sem    chan struct{}
	logger arbor.ILogger

	// Replaceable for tests that exercise lifecycle and fallback logic
	// without a browser.
	closeTab func(ctx context.Context) error
	navigate func(ctx context.Context, targetURL string, strat navStrategy) (*network.Response, error)
	perform  func(tabCtx context.Context) error
}

func newVariantEngine(engine browserEngine, task models.VariantTask, config common.CaptureConfig, sem chan struct{}, logger arbor.ILogger) variantRunner {
	v := &variantEngine{
		engine:   engine,
		task:     task,
		config:   config,
		sem:      sem,
		logger:   logger,
		closeTab: chromedp.Cancel,
		navigate: navigate,
	}
	v.perform = v.performCapture
	return v
}

func (v *variantEngine) label() models.DeviceKind {
	return v.task.Label
}

func (v *variantEngine) run(ctx context.Context) error {
	if v.sem != nil {
		select {
		case v.sem <- struct{}{}:
			defer func() { <-v.sem }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	startTime := time.Now()

	tabCtx, tabCancel := v.engine.NewTab()
	defer func() {
		// Page before context, each exactly once, best effort: closeTab
		// shuts the target gracefully, the context cancel releases the
		// remaining resources. Cleanup failure never masks the handler
		// error and never triggers a retry.
		if cerr := v.closeTab(tabCtx); cerr != nil {
			v.logger.Debug().
				Err(cerr).
				Str("url", v.task.URL).
				Str("variant", string(v.task.Label)).
				Msg("Page close failed during cleanup")
		}
		tabCancel()
	}()

	if err := v.perform(tabCtx); err != nil {
		return err
	}

	v.logger.Debug().
		Str("url", v.task.URL).
		Str("variant", string(v.task.Label)).
		Int64("duration_ms", time.Since(startTime).Milliseconds()).
		Msg("Variant captured")

	return nil
}

// performCapture drives the tab through emulation, navigation, the settle
// waits, the readiness gate and artifact capture.
func (v *variantEngine) performCapture(tabCtx context.Context) error {
	if err := chromedp.Run(tabCtx, v.emulateActions()...); err != nil {
		return fmt.Errorf("device emulation failed for %s variant: %w", v.task.Label, err)
	}

	if err := v.navigateWithFallback(tabCtx); err != nil {
		return err
	}

	if idle := time.Duration(v.config.PostNavigationIdleMs) * time.Millisecond; idle > 0 {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(idle)); err != nil {
			return fmt.Errorf("post-navigation idle interrupted: %w", err)
		}
	}
	if settle := time.Duration(v.config.StabilizationDelayMs) * time.Millisecond; settle > 0 {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(settle)); err != nil {
			return fmt.Errorf("stabilization wait interrupted: %w", err)
		}
	}

	if err := waitForContent(tabCtx, time.Duration(v.config.ContentReadyTimeoutMs)*time.Millisecond); err != nil {
		return fmt.Errorf("%s variant of %s: %w", v.task.Label, v.task.URL, err)
	}

	return v.captureArtifacts(tabCtx)
}

// navigateWithFallback walks the fixed strategy list. Each strategy is tried
// exactly once; exhausting the list is terminal for the variant.
func (v *variantEngine) navigateWithFallback(tabCtx context.Context) error {
	strategies := navStrategies(v.config)

	var lastErr error
	for i, strat := range strategies {
		_, err := v.navigate(tabCtx, v.task.URL, strat)
		if err == nil {
			return nil
		}
		lastErr = err

		v.logger.Warn().
			Err(err).
			Str("url", v.task.URL).
			Str("variant", string(v.task.Label)).
			Str("mode", string(strat.Mode)).
			Int("attempt", i+1).
			Int("strategies", len(strategies)).
			Msg("Navigation attempt failed")
	}

	return fmt.Errorf("all navigation strategies failed for %s: %w", v.task.URL, lastErr)
}

// captureArtifacts writes the screenshot first, then the serialized
// document, matching the state order ScreenshotTaken -> HtmlCaptured -> Done.
func (v *variantEngine) captureArtifacts(tabCtx context.Context) error {
	var shot []byte
	if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&shot, 100)); err != nil {
		return fmt.Errorf("screenshot capture failed for %s: %w", v.task.URL, err)
	}
	shotPath := filepath.Join(v.task.Dir, v.task.ScreenshotFile)
	if err := os.WriteFile(shotPath, shot, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", shotPath, err)
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return fmt.Errorf("HTML serialization failed for %s: %w", v.task.URL, err)
	}
	htmlPath := filepath.Join(v.task.Dir, v.task.HTMLFile)
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML %s: %w", htmlPath, err)
	}

	if v.config.Markdown && v.task.MarkdownFile != "" {
		if err := v.writeMarkdown(html); err != nil {
			return err
		}
	}

	return nil
}

func (v *variantEngine) writeMarkdown(html string) error {
	domain := ""
	if parsed, err := url.Parse(v.task.URL); err == nil {
		domain = parsed.Host
	}

	converter := md.NewConverter(domain, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return fmt.Errorf("markdown conversion failed for %s: %w", v.task.URL, err)
	}

	mdPath := filepath.Join(v.task.Dir, v.task.MarkdownFile)
	if err := os.WriteFile(mdPath, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write markdown %s: %w", mdPath, err)
	}
	return nil
}

// emulateActions builds the CDP overrides that realize the device profile in
// the fresh browsing context.
func (v *variantEngine) emulateActions() []chromedp.Action {
	profile := v.task.Profile

	metrics := emulation.SetDeviceMetricsOverride(
		profile.Viewport.Width,
		profile.Viewport.Height,
		profile.ScaleFactor,
		profile.Mobile,
	)
	if profile.Screen.Width > 0 && profile.Screen.Height > 0 {
		metrics = metrics.WithScreenWidth(profile.Screen.Width).WithScreenHeight(profile.Screen.Height)
	}

	actions := []chromedp.Action{metrics, emulation.SetTouchEmulationEnabled(profile.Touch)}

	if profile.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(profile.UserAgent))
	}
	if profile.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(profile.Timezone))
	}
	if profile.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(profile.Locale))
	}
	if profile.ColorScheme != "" {
		actions = append(actions, emulation.SetEmulatedMedia().WithFeatures([]*emulation.MediaFeature{
			{Name: "prefers-color-scheme", Value: string(profile.ColorScheme)},
		}))
	}

	return actions
}
