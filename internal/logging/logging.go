package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sapreplay/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the global logger. Logs go to stderr so command output on
// stdout stays clean. The returned closer releases the log file, if any.
func Init(cfg config.LogConfig) (io.Closer, error) {
	return initWith(cfg, os.Stderr)
}

func initWith(cfg config.LogConfig, console io.Writer) (io.Closer, error) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var output io.Writer = console
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: console}
	}

	var closer io.Closer = nopCloser{}
	if path := strings.TrimSpace(cfg.File); path != "" {
		writer, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err != nil {
			return nil, err
		}
		output = zerolog.MultiLevelWriter(output, writer)
		closer = writer
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return closer, nil
}
