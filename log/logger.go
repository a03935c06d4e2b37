package log

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// The currently active level. SetSink re-applies it to the new backend.
var activeLevel = Notice

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger. Spaces in the name are replaced with
// underscores so module names stay grep-able in the log output.
func New(name string) Logger {
	return logging.MustGetLogger(strings.Replace(name, " ", "_", -1))
}

// Override the backend output sink.
func SetSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	logging.SetBackend(leveledBackend)
	SetLevel(activeLevel)
}

// Set logger verbosity.
func SetLevel(level Level) {
	leveledBackend.SetLevel(level.goLoggingLevel(), "")
	activeLevel = level
}

// Map a level to the matching go-logging level.
func (l Level) goLoggingLevel() logging.Level {
	switch l {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	}
	return logging.NOTICE
}

// Implements Stringer.
func (l Level) String() string {
	return l.goLoggingLevel().String()
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
