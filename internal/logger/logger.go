package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"scanstation/internal/config"
	"sync"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

type level int

const (
	levelInfo level = iota
	levelWarning
	levelError
	levelCount
)

// levels maps each level to its name in URLs, its file and its console prefix.
var levels = [levelCount]struct {
	name   string
	file   string
	prefix string
}{
	levelInfo:    {"info", InfoFile, "ℹ️  INFO    "},
	levelWarning: {"warning", WarningFile, "⚠️  WARNING "},
	levelError:   {"error", ErrorFile, "❌ ERROR   "},
}

// LevelFile returns the log file for a level name such as "warning".
func LevelFile(name string) (string, bool) {
	for _, lv := range levels {
		if lv.name == name {
			return lv.file, true
		}
	}
	return "", false
}

// Logger writes every level to its own file and mirrors it to the console:
// errors to stderr, the rest to stdout.
type Logger struct {
	mu      sync.Mutex
	loggers [levelCount]*log.Logger
	files   []*os.File
	logDir  string
}

// NewLogger opens the per-level files under config.LogDirectory, creating
// the directory if needed. It exits the process when that fails.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{logDir: config.LogDirectory}
	for i, lv := range levels {
		file, err := os.OpenFile(filepath.Join(l.logDir, lv.file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file %s: %v", lv.file, err)
		}
		l.files = append(l.files, file)

		var console io.Writer = os.Stdout
		if level(i) == levelError {
			console = os.Stderr
		}
		l.loggers[i] = log.New(io.MultiWriter(console, file), lv.prefix, log.Ldate|log.Ltime|log.Lshortfile)
	}
	return l
}

// NewDiscard returns a Logger that drops every entry. Tests use it.
func NewDiscard() *Logger {
	l := &Logger{}
	for i := range l.loggers {
		l.loggers[i] = log.New(io.Discard, "", 0)
	}
	return l
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.write(levelInfo, format, v...)
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.write(levelWarning, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.write(levelError, format, v...)
}

// write reports the caller of Info/Warning/Error as the source line.
func (l *Logger) write(lv level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loggers[lv].Output(3, fmt.Sprintf(format, v...))
}

// Directory returns the directory the log files live in; empty for a
// discard logger.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs truncates one of the log files.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}

	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.Error("Failed to clear %s: %v", fileName, err)
		return err
	}
	defer file.Close()

	l.Info("Log file %s cleared", fileName)
	return nil
}

// Close closes the log files. Entries logged afterwards only reach the console.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for i, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		console := os.Stdout
		if level(i) == levelError {
			console = os.Stderr
		}
		l.loggers[i].SetOutput(console)
	}
	l.files = nil
	return firstErr
}
