package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level định nghĩa các mức độ log
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel đọc level từ cấu hình, mặc định là info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger interface định nghĩa các phương thức logging
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Debug(format string, v ...interface{})
	With(args ...interface{}) Logger
}

// DefaultLogger implement Logger interface trên nền slog
type DefaultLogger struct {
	l *slog.Logger
}

// NewDefaultLogger tạo logger JSON ghi ra stdout
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewLogger(os.Stdout, level)
}

func NewLogger(w io.Writer, level Level) *DefaultLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	return &DefaultLogger{l: slog.New(h)}
}

// NewNopLogger bỏ qua mọi log, dùng trong test
func NewNopLogger() *DefaultLogger {
	return NewLogger(io.Discard, ErrorLevel)
}

// Slog trả về *slog.Logger bên dưới
func (d *DefaultLogger) Slog() *slog.Logger {
	return d.l
}

func (d *DefaultLogger) With(args ...interface{}) Logger {
	return &DefaultLogger{l: d.l.With(args...)}
}

// Info log thông tin
func (d *DefaultLogger) Info(format string, v ...interface{}) {
	d.log(slog.LevelInfo, format, v...)
}

func (d *DefaultLogger) Warn(format string, v ...interface{}) {
	d.log(slog.LevelWarn, format, v...)
}

// Error log lỗi
func (d *DefaultLogger) Error(format string, v ...interface{}) {
	d.log(slog.LevelError, format, v...)
}

// Debug log debug
func (d *DefaultLogger) Debug(format string, v ...interface{}) {
	d.log(slog.LevelDebug, format, v...)
}

func (d *DefaultLogger) log(level slog.Level, format string, v ...interface{}) {
	ctx := context.Background()
	if !d.l.Enabled(ctx, level) {
		return
	}
	d.l.Log(ctx, level, fmt.Sprintf(format, v...))
}
