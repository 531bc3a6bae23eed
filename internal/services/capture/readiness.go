package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// contentReadyExpr is the readiness predicate evaluated inside the rendered
// page. Ordered probes: body text, then the first element matching the
// candidate selector list, its text, then its bounding rectangle. The
// predicate never throws; only the surrounding timeout signals failure.
const contentReadyExpr = `(() => {
	const body = document.body;
	if (body && body.innerText && body.innerText.trim().length > 0) {
		return true;
	}
	const el = document.querySelector('img, video, iframe, canvas, svg, picture, main, article, section, div');
	if (!el) {
		return false;
	}
	if (el.innerText && el.innerText.trim().length > 0) {
		return true;
	}
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
})()`

// contentPollInterval is the delay between predicate evaluations.
const contentPollInterval = 250 * time.Millisecond

// waitForContent polls the readiness predicate until it reports true or the
// timeout elapses. A non-positive timeout disables the wait entirely.
// Evaluation transport errors are treated as not-ready rather than failures.
func waitForContent(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for {
		var ready bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(contentReadyExpr, &ready)); err == nil && ready {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("content not ready after %dms", timeout.Milliseconds())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("content readiness wait aborted (budget %dms): %w", timeout.Milliseconds(), ctx.Err())
		case <-time.After(contentPollInterval):
		}
	}
}
