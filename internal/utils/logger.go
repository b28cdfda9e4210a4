package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	log hclog.Logger
}

func NewLogger(debug bool, out io.Writer) *Logger {
	level := hclog.Info
	if debug {
		level = hclog.Debug
	}
	if out == nil {
		out = os.Stdout
	}

	return &Logger{
		log: hclog.New(&hclog.LoggerOptions{
			Name:            "flicks",
			Level:           level,
			Output:          out,
			IncludeLocation: debug,
			TimeFormat:      "2006/01/02 15:04:05",
		}),
	}
}

// NewFileWriter returns stdout teed into a size-rotated app.log under dataPath.
func NewFileWriter(dataPath string) (io.Writer, io.Closer, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dataPath, "app.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14,
	}
	return io.MultiWriter(os.Stdout, rotator), rotator, nil
}

// Named returns a sub-logger whose lines are prefixed with the component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{log: l.log.Named(name)}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log.Error(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log.Error(msg, args...)
	os.Exit(1)
}

// Discard is a logger for tests.
func Discard() *Logger {
	return &Logger{log: hclog.NewNullLogger()}
}
