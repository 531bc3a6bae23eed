package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/captura/internal/common"
)

// waitMode is the readiness criterion for one navigation attempt.
type waitMode string

const (
	waitNetworkIdle      waitMode = "networkidle"
	waitDOMContentLoaded waitMode = "domcontentloaded"
)

// networkIdleQuiet is the window without network activity that qualifies a
// loaded page as idle.
const networkIdleQuiet = 500 * time.Millisecond

// navStrategy pairs a readiness mode with its timeout. A timeout of zero
// means no deadline, which can block the owning task indefinitely.
type navStrategy struct {
	Mode    waitMode
	Timeout time.Duration
}

// navStrategies returns the fixed two-strategy list: network idle with the
// primary timeout, then DOM content loaded with the fallback timeout. Each
// strategy is attempted exactly once; no strategy is ever retried.
func navStrategies(config common.CaptureConfig) []navStrategy {
	return []navStrategy{
		{Mode: waitNetworkIdle, Timeout: time.Duration(config.PrimaryNavigationTimeoutMs) * time.Millisecond},
		{Mode: waitDOMContentLoaded, Timeout: time.Duration(config.FallbackNavigationTimeoutMs) * time.Millisecond},
	}
}

// navWatcher observes page lifecycle and network events for one navigation.
type navWatcher struct {
	mu           sync.Mutex
	response     *network.Response
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time

	domReady chan struct{}
	loaded   chan struct{}
	domOnce  sync.Once
	loadOnce sync.Once
}

func newNavWatcher() *navWatcher {
	return &navWatcher{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
		domReady:     make(chan struct{}),
		loaded:       make(chan struct{}),
	}
}

func (w *navWatcher) handle(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventDomContentEventFired:
		w.domOnce.Do(func() { close(w.domReady) })
	case *page.EventLoadEventFired:
		w.loadOnce.Do(func() { close(w.loaded) })
	case *network.EventRequestWillBeSent:
		w.mu.Lock()
		w.inflight[e.RequestID] = struct{}{}
		w.lastActivity = time.Now()
		w.mu.Unlock()
	case *network.EventLoadingFinished:
		w.mu.Lock()
		delete(w.inflight, e.RequestID)
		w.lastActivity = time.Now()
		w.mu.Unlock()
	case *network.EventLoadingFailed:
		w.mu.Lock()
		delete(w.inflight, e.RequestID)
		w.lastActivity = time.Now()
		w.mu.Unlock()
	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument {
			return
		}
		w.mu.Lock()
		if w.response == nil {
			w.response = e.Response
		}
		w.mu.Unlock()
	}
}

// inflightCount reports how many requests are currently in flight.
func (w *navWatcher) inflightCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight)
}

// documentResponse returns the main-document response, if one was observed.
func (w *navWatcher) documentResponse() *network.Response {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.response
}

// awaitIdle blocks until no request has been in flight for networkIdleQuiet,
// or the context expires.
func (w *navWatcher) awaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.mu.Lock()
			idle := len(w.inflight) == 0 && time.Since(w.lastActivity) >= networkIdleQuiet
			w.mu.Unlock()
			if idle {
				return nil
			}
		}
	}
}

// navigate drives one navigation attempt under one strategy. An HTTP status
// of 400 or above on the observed document response is a navigation failure
// for the strategy; an absent response object is treated as success.
func navigate(parent context.Context, targetURL string, strat navStrategy) (*network.Response, error) {
	ctx := parent
	cancel := context.CancelFunc(func() {})
	if strat.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, strat.Timeout)
	}
	defer cancel()

	watcher := newNavWatcher()
	chromedp.ListenTarget(ctx, watcher.handle)

	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errorText, _, err := page.Navigate(targetURL).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("%s", errorText)
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", targetURL, err)
	}

	switch strat.Mode {
	case waitDOMContentLoaded:
		select {
		case <-watcher.domReady:
		case <-ctx.Done():
			return watcher.documentResponse(), fmt.Errorf("timed out waiting for DOM content at %s: %w", targetURL, ctx.Err())
		}
	default:
		select {
		case <-watcher.loaded:
		case <-ctx.Done():
			return watcher.documentResponse(), fmt.Errorf("timed out waiting for page load at %s: %w", targetURL, ctx.Err())
		}
		if err := watcher.awaitIdle(ctx); err != nil {
			return watcher.documentResponse(), fmt.Errorf("timed out waiting for network idle at %s: %w", targetURL, err)
		}
	}

	return checkResponse(watcher.documentResponse(), targetURL)
}

// checkResponse applies the HTTP status gate. A missing response object
// counts as success (same-document and non-HTTP navigations produce none).
func checkResponse(resp *network.Response, targetURL string) (*network.Response, error) {
	if resp != nil && resp.Status >= 400 {
		return resp, fmt.Errorf("HTTP %d returned for %s", resp.Status, targetURL)
	}
	return resp, nil
}
