package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/devices"
	"github.com/ternarybob/captura/internal/models"
)

// runFolderLayout is the timestamp format for run folder names,
// day-month-year-hour-minute-second.
const runFolderLayout = "02-01-2006-15-04-05"

// RunRecorder persists completed run summaries. Persistence is best effort
// and never fails a run.
type RunRecorder interface {
	SaveRun(record *models.RunRecord) error
}

// RunResult summarizes one completed capture run.
type RunResult struct {
	RunID     string
	Folder    string
	Outcomes  []models.CaptureOutcome
	Succeeded int
	Failed    int
}

// AnyFailed reports whether at least one link produced a failed outcome.
func (r *RunResult) AnyFailed() bool {
	return r.Failed > 0
}

// Service coordinates a full capture run: run folder creation, browser
// launch, slug assignment, link fan-out and outcome reduction.
type Service struct {
	config  *common.Config
	logger  arbor.ILogger
	devices *devices.Factory
	history RunRecorder
	limiter *rate.Limiter

	// launch and newVariant are replaceable for tests that run the
	// orchestration without a real browser.
	launch     func(ctx context.Context, config common.ChromiumConfig, logger arbor.ILogger) (browserEngine, error)
	newVariant func(engine browserEngine, task models.VariantTask, config common.CaptureConfig, sem chan struct{}, logger arbor.ILogger) variantRunner
}

// NewService builds the run coordinator. The history recorder may be nil
// when run persistence is disabled.
func NewService(config *common.Config, logger arbor.ILogger, factory *devices.Factory, history RunRecorder) *Service {
	var limiter *rate.Limiter
	if interval := config.Capture.LinkRateLimitDuration(); interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Service{
		config:  config,
		logger:  logger,
		devices: factory,
		history: history,
		limiter: limiter,
		launch: func(ctx context.Context, config common.ChromiumConfig, logger arbor.ILogger) (browserEngine, error) {
			return LaunchEngine(ctx, config, logger)
		},
		newVariant: newVariantEngine,
	}
}

// Run captures every URL across all device variants into a fresh timestamped
// run folder. Setup failures (run directory, engine launch) are returned as
// errors; per-link failures are reported through the outcomes, one per input
// URL in input order.
func (s *Service) Run(ctx context.Context, urls []string) (*RunResult, error) {
	startTime := time.Now()

	runDir := filepath.Join(s.config.Capture.OutputDir, startTime.Format(runFolderLayout))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	logger := common.WithRunLog(s.logger, s.config, runDir)
	logger.Info().
		Str("folder", runDir).
		Int("links", len(urls)).
		Bool("parallel", s.config.Capture.Parallel).
		Msg("Starting capture run")

	engine, err := s.launch(ctx, s.config.Chromium, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser engine: %w", err)
	}
	defer engine.Close()

	var sem chan struct{}
	if n := s.config.Capture.MaxConcurrentContexts; n > 0 {
		sem = make(chan struct{}, n)
	}

	// Slug assignment and directory creation happen sequentially before any
	// concurrent work so names are deterministic in input order.
	orchestrators, err := s.prepareLinks(runDir, urls, engine, sem, logger)
	if err != nil {
		return nil, err
	}

	outcomes := s.execute(ctx, orchestrators)

	result := &RunResult{
		RunID:    uuid.New().String(),
		Folder:   runDir,
		Outcomes: outcomes,
	}
	for _, outcome := range outcomes {
		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int64("duration_ms", time.Since(startTime).Milliseconds()).
		Msg("Capture run finished")

	s.recordRun(result, startTime, logger)

	return result, nil
}

// prepareLinks assigns unique slugs, creates the per-link directories and
// builds one orchestrator per URL. Directory creation failure is fatal.
func (s *Service) prepareLinks(runDir string, urls []string, engine browserEngine, sem chan struct{}, logger arbor.ILogger) ([]*linkOrchestrator, error) {
	used := make(map[string]struct{}, len(urls))
	orchestrators := make([]*linkOrchestrator, 0, len(urls))

	for i, rawURL := range urls {
		slug := uniqueSlug(slugify(rawURL, i), used)
		linkDir := filepath.Join(runDir, slug)
		if err := os.MkdirAll(linkDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create link directory %s: %w", linkDir, err)
		}

		variants := make([]variantRunner, 0, len(models.AllDeviceKinds()))
		for _, kind := range models.AllDeviceKinds() {
			task := models.VariantTask{
				URL:            rawURL,
				Dir:            linkDir,
				HTMLFile:       fmt.Sprintf("page.%s.html", kind),
				ScreenshotFile: fmt.Sprintf("page.%s.png", kind),
				Profile:        s.devices.BuildContextOptions(kind),
				Label:          kind,
			}
			if s.config.Capture.Markdown {
				task.MarkdownFile = fmt.Sprintf("page.%s.md", kind)
			}
			variants = append(variants, s.newVariant(engine, task, s.config.Capture, sem, logger))
		}

		desktopHTML := filepath.Join(linkDir, fmt.Sprintf("page.%s.html", models.DeviceDesktop))
		url := rawURL
		orchestrators = append(orchestrators, &linkOrchestrator{
			url:      url,
			folder:   linkDir,
			variants: variants,
			parallel: s.config.Capture.Parallel,
			manifest: func() error {
				return writeManifest(linkDir, url, desktopHTML, models.AllDeviceKinds())
			},
			logger: logger,
		})
	}

	return orchestrators, nil
}

// execute runs the per-link orchestrators either all at once or one after
// another, collecting outcomes indexed by input position.
func (s *Service) execute(ctx context.Context, orchestrators []*linkOrchestrator) []models.CaptureOutcome {
	outcomes := make([]models.CaptureOutcome, len(orchestrators))

	if !s.config.Capture.Parallel {
		for i, orch := range orchestrators {
			s.pace(ctx)
			outcomes[i] = orch.run(ctx)
		}
		return outcomes
	}

	var wg sync.WaitGroup
	for i, orch := range orchestrators {
		s.pace(ctx)
		wg.Add(1)
		go func(i int, orch *linkOrchestrator) {
			defer wg.Done()
			outcomes[i] = orch.run(ctx)
		}(i, orch)
	}
	wg.Wait()

	return outcomes
}

// pace blocks until the rate limiter grants a slot, when pacing is enabled.
func (s *Service) pace(ctx context.Context) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Rate limiter wait interrupted")
	}
}

func (s *Service) recordRun(result *RunResult, startTime time.Time, logger arbor.ILogger) {
	if s.history == nil {
		return
	}

	record := &models.RunRecord{
		ID:        result.RunID,
		StartedAt: startTime,
		Duration:  time.Since(startTime),
		Folder:    result.Folder,
		Total:     len(result.Outcomes),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Outcomes:  result.Outcomes,
	}
	if err := s.history.SaveRun(record); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist run record")
	}
}
