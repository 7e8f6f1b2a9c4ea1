package logx

import (
	"os"

	"github.com/MobiAdvisor-core/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

// LoggerOpts selects the output format and level. Level overrides the
// environment default when it parses ("debug", "info", "warn", ...).
type LoggerOpts struct {
	Environment core.Environment
	Service     string
	Level       string
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

// Init replaces the global logger. Production writes JSON at info level,
// testing discards everything and other environments write colored console
// lines with the caller at debug level.
func Init(otps ...LoggerOpts) {
	opts := safe(otps...)

	var l zerolog.Logger
	switch opts.Environment {
	case core.Production:
		l = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	case core.Testing:
		l = zerolog.Nop()
	default:
		l = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}
	if lvl, err := zerolog.ParseLevel(opts.Level); err == nil && opts.Level != "" {
		l = l.Level(lvl)
	}
	if opts.Service != "" {
		l = l.With().Str("service", opts.Service).Logger()
	}
	log.Logger = l
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
