package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Level selects logger verbosity
type Level logging.Level

// The levels that can be passed to SetLevel
const (
	Debug Level = iota
	Info
	Warning
	Error
)

var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s}%{color:reset} %{message}`,
)

var leveledBackend logging.LeveledBackend

// Logger is the leveled module logger handed to each package
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New creates a named module logger
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink overrides the backend output sink
func SetSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(formatted)
	leveledBackend.SetLevel(logging.INFO, "")
	logging.SetBackend(leveledBackend)
}

// SetLevel sets logger verbosity for all modules
func SetLevel(level Level) {
	var target logging.Level
	switch level {
	case Debug:
		target = logging.DEBUG
	case Info:
		target = logging.INFO
	case Warning:
		target = logging.WARNING
	case Error:
		target = logging.ERROR
	}
	leveledBackend.SetLevel(target, "")
}

func init() {
	SetSink(os.Stderr)
	SetLevel(Warning)
}
