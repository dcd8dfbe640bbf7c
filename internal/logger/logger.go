package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// Debug level for detailed troubleshooting
	Debug LogLevel = iota
	// Info level for general operational entries
	Info
	// Warn level for non-critical issues
	Warn
	// Error level for errors that need attention
	Error
)

var levelNames = map[LogLevel]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
}

// DirMode defines platform-specific directory permissions
var DirMode os.FileMode

func init() {
	if runtime.GOOS == "windows" {
		DirMode = 0666
	} else {
		DirMode = 0755
	}
}

// Logger represents our custom logger. Unlike a logger with one *log.Logger
// per level, Logger gates a single underlying writer by level so adding a
// level never means adding another *log.Logger field.
type Logger struct {
	mu    sync.Mutex
	out   *log.Logger
	level LogLevel
	file  io.Closer // rotating log file, if one was configured
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config holds logger configuration
type Config struct {
	// LogLevel sets the minimum level to log
	LogLevel LogLevel
	// LogFile is the path to the log file. If empty, logs to stdout
	LogFile string
	// MaxSize is the maximum size in bytes before the log file rotates.
	MaxSize int64
}

// Initialize sets up the default logger with configuration
func Initialize(config Config) error {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(config)
	})
	return err
}

// NewLogger creates a new logger instance
func NewLogger(config Config) (*Logger, error) {
	var writers []io.Writer
	writers = append(writers, os.Stdout)

	var logFile io.Closer
	if config.LogFile != "" {
		// Ensure path separators are correct for the platform
		config.LogFile = filepath.Clean(config.LogFile)

		// Create log directory with platform-appropriate permissions
		logDir := filepath.Dir(config.LogFile)
		if err := os.MkdirAll(logDir, DirMode); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %v", err)
		}

		maxSizeMB := int(config.MaxSize / (1024 * 1024))
		if maxSizeMB <= 0 {
			maxSizeMB = 100
		}
		rotator := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    maxSizeMB,
			MaxBackups: 3,
			Compress:   true,
		}
		logFile = rotator
		writers = append(writers, rotator)
	}

	multiWriter := io.MultiWriter(writers...)

	return &Logger{
		out:   log.New(multiWriter, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile),
		level: config.LogLevel,
		file:  logFile,
	}, nil
}

// Close properly closes the logger's file handle if one exists
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// log writes a message at level if the logger's configured level admits it.
// calldepth 3 accounts for this frame and the exported Debug/Info/Warn/Error
// wrapper, so log.Lshortfile still reports the caller's file and line.
func (l *Logger) log(level LogLevel, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level > level {
		return
	}
	l.out.Output(3, levelNames[level]+": "+fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.log(Debug, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.log(Info, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) { l.log(Warn, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.log(Error, format, v...) }

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		panic("logger not initialized")
	}
	return defaultLogger
}

// ParseLogLevel converts a string level to LogLevel
func ParseLogLevel(level string) (LogLevel, error) {
	switch level {
	case "debug", "DEBUG":
		return Debug, nil
	case "info", "INFO":
		return Info, nil
	case "warn", "WARN":
		return Warn, nil
	case "error", "ERROR":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown log level: %s", level)
	}
}
