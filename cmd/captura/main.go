package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/captura/internal/common"
	"github.com/ternarybob/captura/internal/devices"
	"github.com/ternarybob/captura/internal/links"
	"github.com/ternarybob/captura/internal/scheduler"
	"github.com/ternarybob/captura/internal/services/capture"
	"github.com/ternarybob/captura/internal/storage"
)

// configPaths allows the -config flag to be given multiple times.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	linksFile    = flag.String("links", "", "Links file path (overrides config)")
	linksFileL   = flag.String("l", "", "Links file path (shorthand, overrides config)")
	outputDir    = flag.String("output", "", "Output directory (overrides config)")
	outputDirO   = flag.String("o", "", "Output directory (shorthand, overrides config)")
	historyList  = flag.Int("history", 0, "List the last N run records and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Captura version %s\n", common.GetFullVersion())
		return 0
	}

	// Shorthand flags take precedence, matching the long forms.
	finalLinks := *linksFile
	if *linksFileL != "" {
		finalLinks = *linksFileL
	}
	finalOutput := *outputDir
	if *outputDirO != "" {
		finalOutput = *outputDirO
	}

	// Auto-discover a config file when none was given.
	if len(configFiles) == 0 {
		for _, candidate := range []string{"captura.toml", "deployments/local/captura.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFiles = append(configFiles, candidate)
				break
			}
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	common.ApplyFlagOverrides(config, finalOutput, finalLinks)

	logger := common.NewLogger(config)
	common.PrintBanner(common.GetVersion())

	var history *storage.HistoryStore
	if config.History.Enabled {
		history, err = storage.OpenHistory(config.History, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open run history")
			return 1
		}
		defer history.Close()
	}

	if *historyList > 0 {
		return listHistory(history, *historyList, logger)
	}

	loader := links.NewLoader(logger)
	urls, err := loader.Load(config.Capture.LinksFile)
	if err != nil {
		logger.Error().Err(err).Str("path", config.Capture.LinksFile).Msg("Failed to load links")
		return 1
	}

	factory := devices.NewFactory(config.Devices, logger)
	var recorder capture.RunRecorder
	if history != nil {
		recorder = history
	}
	service := capture.NewService(config, logger, factory, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Capture.Schedule != "" {
		return runScheduled(ctx, config, service, urls, logger)
	}
	return runOnce(ctx, service, urls, logger)
}

func runOnce(ctx context.Context, service *capture.Service, urls []string, logger arbor.ILogger) int {
	result, err := service.Run(ctx, urls)
	if err != nil {
		logger.Error().Err(err).Msg("Capture run failed")
		return 1
	}

	for _, outcome := range result.Outcomes {
		if outcome.Success {
			logger.Info().Str("url", outcome.URL).Str("folder", outcome.Folder).Msg("OK")
		} else {
			logger.Error().Str("url", outcome.URL).Str("error", outcome.Error).Msg("FAILED")
		}
	}

	if result.AnyFailed() {
		return 1
	}
	return 0
}

func runScheduled(ctx context.Context, config *common.Config, service *capture.Service, urls []string, logger arbor.ILogger) int {
	if err := scheduler.Validate(config.Capture.Schedule); err != nil {
		logger.Error().Err(err).Msg("Invalid capture schedule")
		return 1
	}

	sched := scheduler.New(logger)
	err := sched.Start(config.Capture.Schedule, func() {
		if _, rerr := service.Run(ctx, urls); rerr != nil {
			logger.Error().Err(rerr).Msg("Scheduled capture run failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}
	defer sched.Stop()

	logger.Info().Str("schedule", config.Capture.Schedule).Msg("Running on schedule, press Ctrl+C to stop")
	<-ctx.Done()
	return 0
}

func listHistory(history *storage.HistoryStore, limit int, logger arbor.ILogger) int {
	if history == nil {
		logger.Error().Msg("Run history is disabled in configuration")
		return 1
	}

	records, err := history.ListRuns(limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list run history")
		return 1
	}

	for _, record := range records {
		fmt.Printf("%s  %s  total=%d ok=%d failed=%d  %s\n",
			record.StartedAt.Format("2006-01-02 15:04:05"),
			record.ID,
			record.Total,
			record.Succeeded,
			record.Failed,
			record.Folder,
		)
	}
	return 0
}
