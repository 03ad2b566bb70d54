package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogMode string

const (
	LogModeDebug  LogMode = "debug"
	LogModePretty LogMode = "pretty"
	LogModeInfo   LogMode = "info"
	LogModeProd   LogMode = "prod"
	LogModeTest   LogMode = "test"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	log = zerolog.New(io.Discard)
}

// Init sets up the pretty console logger.
func Init() {
	InitWithMode(LogModePretty)
}

// InitWithMode configures the global logger for the given mode. Unknown modes
// fall back to pretty.
func InitWithMode(mode LogMode) {
	var (
		out   io.Writer
		level zerolog.Level
	)

	switch mode {
	case LogModeDebug:
		out, level = consoleWriter(os.Stdout), zerolog.DebugLevel
	case LogModeInfo:
		out, level = consoleWriter(os.Stdout), zerolog.InfoLevel
	case LogModeProd:
		out, level = os.Stdout, zerolog.InfoLevel
	case LogModeTest:
		out, level = io.Discard, zerolog.Disabled
	default:
		out, level = consoleWriter(os.Stdout), zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// SetOutput replaces the logger sink, keeping the global level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger()
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			return colorizeLevel(s)
		},
		FormatMessage: func(i interface{}) string {
			s, _ := i.(string)
			return colorize(s, cyan)
		},
		FormatFieldName: func(i interface{}) string {
			return colorize(fmt.Sprint(i)+":", gray)
		},
		FormatFieldValue: func(i interface{}) string {
			switch v := i.(type) {
			case string:
				return colorize(v, blue)
			case json.Number:
				return colorize(v.String(), blue)
			default:
				return colorize(fmt.Sprint(v), blue)
			}
		},
	}
}

// ANSI color codes
const (
	gray  = "\x1b[37m"
	blue  = "\x1b[34m"
	cyan  = "\x1b[36m"
	red   = "\x1b[31m"
	green = "\x1b[32m"
	reset = "\x1b[0m"
)

func colorize(s, color string) string {
	return color + s + reset
}

func colorizeLevel(level string) string {
	switch level {
	case "debug":
		return colorize("DBG", gray)
	case "info":
		return colorize("INF", green)
	case "warn":
		return colorize("WRN", cyan)
	case "error", "fatal":
		return colorize("ERR", red)
	default:
		return colorize(level, blue)
	}
}

// Get returns the logger instance
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(component string) zerolog.Logger {
	l := Get()
	return l.With().Str("component", component).Logger()
}

// Error logs an error message
func Error(err error, msg string) {
	l := Get()
	l.Error().Err(err).Msg(msg)
}

// Info logs an info message
func Info(msg string) {
	l := Get()
	l.Info().Msg(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	l := Get()
	l.Debug().Msg(msg)
}
