package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/models"
)

// linkOrchestrator fans one link out across its device variants and reduces
// the results into a single outcome. It is the error boundary for the link:
// run never returns an error, it reports one through the outcome instead.
type linkOrchestrator struct {
	url      string
	folder   string
	variants []variantRunner
	parallel bool
	manifest func() error
	logger   arbor.ILogger
}

func (o *linkOrchestrator) run(ctx context.Context) models.CaptureOutcome {
	var err error
	if o.parallel {
		err = o.runParallel(ctx)
	} else {
		err = o.runSequential(ctx)
	}

	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("url", o.url).
			Msg("Link capture failed")
		return models.OutcomeFail(o.url, o.folder, err)
	}

	if o.manifest != nil {
		if merr := o.manifest(); merr != nil {
			// Manifest extraction is best effort and never fails the link.
			o.logger.Warn().
				Err(merr).
				Str("url", o.url).
				Msg("Manifest extraction failed")
		}
	}

	o.logger.Info().
		Str("url", o.url).
		Str("folder", o.folder).
		Msg("Link captured")
	return models.OutcomeOK(o.url, o.folder)
}

// runParallel launches every variant concurrently and waits for all of them.
// Errors are collected by position so the reported failure is deterministic
// regardless of completion order.
func (o *linkOrchestrator) runParallel(ctx context.Context) error {
	errs := make([]error, len(o.variants))

	var wg sync.WaitGroup
	for i, variant := range o.variants {
		wg.Add(1)
		go func(i int, variant variantRunner) {
			defer wg.Done()
			if err := variant.run(ctx); err != nil {
				errs[i] = fmt.Errorf("%s variant failed: %w", variant.label(), err)
			}
		}(i, variant)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runSequential walks the variants in declaration order and stops at the
// first failure.
func (o *linkOrchestrator) runSequential(ctx context.Context) error {
	for _, variant := range o.variants {
		if err := variant.run(ctx); err != nil {
			return fmt.Errorf("%s variant failed: %w", variant.label(), err)
		}
	}
	return nil
}
