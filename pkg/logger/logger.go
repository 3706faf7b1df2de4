package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Output       string `split_words:"true" default:"stdout"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Output:       "stdout",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global zerolog logger.
func Init(opts ...Config) {
	conf := safe(opts...)

	out := writerFor(conf.Output)
	if conf.PrettyFormat {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	if conf.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Stack().Logger()
}

// writerFor maps LOG_OUTPUT to a writer: stdout, stderr, discard, or a file
// path opened for append.
func writerFor(output string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	}
	f, err := os.OpenFile(strings.TrimSpace(output), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

// Component returns a child of the global logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
