// 包 logger：进程级日志器的初始化与获取；级别与输出格式由环境变量控制
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// ParseLevel：将 LOG_LEVEL 文本映射为 slog 级别，未知取值回退到 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New：按级别与格式构建日志器；format 为 json 时输出 JSON，其余输出文本
func New(w io.Writer, lvl slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup：读取 LOG_LEVEL / LOG_FORMAT 初始化默认日志器
// 约束：输出固定为标准错误
func Setup() *slog.Logger {
	l := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
	defaultLogger.Store(l)
	return l
}

// Use：替换默认日志器（测试中注入丢弃输出的日志器）
func Use(l *slog.Logger) { defaultLogger.Store(l) }

// Discard：不输出任何内容的日志器
func Discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// L：获取默认日志器，未初始化时回退到 Setup
func L() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return Setup()
}
