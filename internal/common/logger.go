package common

import (
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// NewLogger constructs the application logger from configuration. The logger
// is passed by reference into each component at construction; there is no
// process-wide mutable singleton.
func NewLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasStdout := false
	for _, output := range config.Logging.Output {
		if output == "stdout" || output == "console" {
			hasStdout = true
		}
	}

	if hasStdout {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			OutputType:       models.OutputFormatLogfmt,
			DisableTimestamp: false,
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

// WithRunLog attaches a file writer appending to <runDir>/console.log, the
// run's log sink. File output respects the configured logging outputs.
func WithRunLog(logger arbor.ILogger, config *Config, runDir string) arbor.ILogger {
	hasFile := false
	for _, output := range config.Logging.Output {
		if output == "file" {
			hasFile = true
		}
	}
	if !hasFile {
		return logger
	}

	return logger.WithFileWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeFile,
		FileName:         filepath.Join(runDir, "console.log"),
		TimeFormat:       "15:04:05",
		MaxSize:          100 * 1024 * 1024, // 100 MB
		OutputType:       models.OutputFormatLogfmt,
		DisableTimestamp: false,
	})
}
