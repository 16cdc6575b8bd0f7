// Package logger is askboard's leveled logger. Messages go to syslog (or
// stderr when syslog is unavailable) at the configured level and to
// askboard.log in the log folder at DEBUG.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/askboard/askboard/config"
	"github.com/op/go-logging"
)

const (
	moduleName  = "askboard"
	logFileName = "askboard.log"

	plainFormat = `%{level} - %{message}`
	timedFormat = `%{time:2006/01/02 15:04:05} %{level} - %{message}`
)

var levels = map[config.LogLevel]logging.Level{
	config.Debug:  logging.DEBUG,
	config.Info:   logging.INFO,
	config.Notice: logging.NOTICE,
	config.Warn:   logging.WARNING,
	config.Error:  logging.ERROR,
}

var (
	// go-logging falls back to stderr until InitLogger runs
	logger  = logging.MustGetLogger(moduleName)
	logFile *os.File
)

// ParseLevel maps a config log level onto a go-logging level.
func ParseLevel(level config.LogLevel) (logging.Level, error) {
	if l, ok := levels[level]; ok {
		return l, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

// InitLogger installs the console and file backends. A backend that cannot
// be opened is skipped with a note on stderr.
func InitLogger(level logging.Level) {
	backends := make([]logging.Backend, 0, 2)
	if b := consoleBackend(); b != nil {
		backends = append(backends, withLevel(b, level))
	}
	if b := fileBackend(); b != nil {
		backends = append(backends, withLevel(b, logging.DEBUG))
	}

	l := logging.MustGetLogger(moduleName)
	l.SetBackend(logging.MultiLogger(backends...))
	logger = l
}

func withLevel(b logging.Backend, level logging.Level) logging.Backend {
	leveled := logging.AddModuleLevel(b)
	leveled.SetLevel(level, moduleName)
	return leveled
}

func consoleBackend() logging.Backend {
	if runtime.GOOS != "windows" {
		syslog, err := logging.NewSyslogBackend("")
		if err == nil {
			return logging.NewBackendFormatter(syslog, logging.MustStringFormatter(plainFormat))
		}
		fmt.Fprintf(os.Stderr, "syslog backend disabled: %v\n", err)
	}
	// stderr under a supervisor already gets timestamps
	format := plainFormat
	if runtime.GOOS == "windows" || os.Getppid() > 1 {
		format = timedFormat
	}
	stderr := logging.NewLogBackend(os.Stderr, "", 0)
	return logging.NewBackendFormatter(stderr, logging.MustStringFormatter(format))
}

// fileBackend truncates askboard.log on every start.
func fileBackend() logging.Backend {
	dir := config.GetLogFolder()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "log folder %s: %v\n", dir, err)
		return nil
	}
	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file %s: %v\n", path, err)
		return nil
	}
	CloseLogger()
	logFile = file
	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), logging.MustStringFormatter(timedFormat))
}

// CloseLogger closes the log file, if one is open.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) { logger.Debug(args...) }

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }

func Info(args ...any) { logger.Info(args...) }

func Infof(format string, args ...any) { logger.Infof(format, args...) }

func Warning(args ...any) { logger.Warning(args...) }

func Warningf(format string, args ...any) { logger.Warningf(format, args...) }

func Error(args ...any) { logger.Error(args...) }

func Errorf(format string, args ...any) { logger.Errorf(format, args...) }
