package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// sink is the state shared by a logger and every child created with With.
type sink struct {
	mu       sync.Mutex
	filename string
	file     *os.File
	level    zap.AtomicLevel
	console  bool
	zl       *zap.Logger
}

// Logger writes JSON entries to a file and mirrors them on stderr. Fatal
// entries are recorded, the process is not terminated.
type Logger struct {
	*sink
	fields []zap.Field
}

// NewLogger opens (or creates) filename for appending. level is one of
// debug, info, warning, error; anything else means info.
func NewLogger(filename, level string) (*Logger, error) {
	return newLogger(filename, level, true)
}

// NewFileLogger is NewLogger without the stderr mirror.
func NewFileLogger(filename, level string) (*Logger, error) {
	return newLogger(filename, level, false)
}

func newLogger(filename, level string, console bool) (*Logger, error) {
	s := &sink{
		filename: filename,
		level:    zap.NewAtomicLevelAt(ParseLevel(level).zapLevel()),
		console:  console,
	}
	if err := s.open(filename); err != nil {
		return nil, err
	}
	return &Logger{sink: s}, nil
}

// open must be called with mu held or before the sink is shared.
func (s *sink) open(filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	s.file = file
	s.filename = filename

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), s.level),
	}
	if s.console {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), s.level))
	}
	s.zl = zap.New(zapcore.NewTee(cores...))
	return nil
}

func (s *sink) closeFile() error {
	if s.zl != nil {
		_ = s.zl.Sync()
		s.zl = nil
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}

// Reopen closes the current file and continues logging into filename.
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.closeFile()
	return l.open(filename)
}

// With returns a logger that adds fields to every entry. The child shares
// the file of its parent.
func (l *Logger) With(fields ...zap.Field) *Logger {
	merged := make([]zap.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Log records one entry.
func (l *Logger) Log(level LogLevel, message string, fields ...zap.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.zl == nil {
		return
	}

	all := make([]zap.Field, 0, len(l.fields)+len(fields)+1)
	all = append(all, l.fields...)
	all = append(all, fields...)
	if level == FATAL {
		all = append(all, zap.Bool("fatal", true))
	}
	if ce := l.zl.Check(level.zapLevel(), message); ce != nil {
		ce.Write(all...)
	}
}

// CheckRotate rotates the file once it grows past maxSize, an expression
// such as "10 * 1024 * 1024".
func (l *Logger) CheckRotate(maxSize string) error {
	limit, err := eval(maxSize)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() <= limit {
		return nil
	}
	return l.rotateLog()
}

// rotateLog must be called with mu held.
func (l *Logger) rotateLog() error {
	name := l.filename
	_ = l.closeFile()

	ext := filepath.Ext(name)
	rotated := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(name, ext), time.Now().Format("20060102150405"), ext)
	if err := os.Rename(name, rotated); err != nil {
		_ = l.open(name)
		return fmt.Errorf("rotate log: %w", err)
	}
	return l.open(name)
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARNING:
		return zapcore.WarnLevel
	case ERROR, FATAL:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// eval multiplies the factors of an "a * b * c" size expression.
func eval(expr string) (int64, error) {
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad size expression %q: %w", expr, err)
		}
		result *= num
	}
	return result, nil
}

func (l *Logger) Debug(msg string, fields ...zap.Field)   { l.Log(DEBUG, msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)    { l.Log(INFO, msg, fields...) }
func (l *Logger) Warning(msg string, fields ...zap.Field) { l.Log(WARNING, msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field)   { l.Log(ERROR, msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...zap.Field)   { l.Log(FATAL, msg, fields...) }
