package logger

import (
	"log/slog"
	"os"
	"strings"
)

var log *slog.Logger

func init() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Debug 调试日志
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Info 普通日志
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Warn 警告日志
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

// Error 错误日志
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Fatal 致命错误，打印后退出
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
