package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options: 日志器初始化参数（进程入口构造一次，向内传递）。
type Options struct {
	CorrID string
	// Level: debug|info|warn|error，默认 info。
	Level string
	// Dir: 非空时 JSON 事件写入该目录下的轮转文件，终端只保留 error。
	Dir string
	// MaxBytes: 单个日志文件上限，默认 10MiB。
	MaxBytes int64
	// Console: 控制台输出，默认 stderr。
	Console io.Writer
}

// Logger 为组件/阶段事件日志器（zap 实现）；nil 接收者安全。
// 事件字段：corr_id, comp, stage(start|finish|error), code, dur_ms, count, file_id。
type Logger struct {
	z    *zap.Logger
	sink *RotatingFile
}

// NewLogger 构造日志器。
func NewLogger(opts Options) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil || strings.TrimSpace(opts.Level) == "" {
		lvl = zapcore.InfoLevel
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	var cores []zapcore.Core
	var sink *RotatingFile
	consoleLevel := zapcore.LevelEnabler(lvl)
	if opts.Dir != "" {
		sink = NewRotatingFile(opts.Dir, opts.MaxBytes)
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), sink, lvl))
		consoleLevel = zapcore.ErrorLevel
	}
	cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), consoleLevel))

	z := zap.New(zapcore.NewTee(cores...))
	if opts.CorrID != "" {
		z = z.With(zap.String("corr_id", opts.CorrID))
	}
	return &Logger{z: z, sink: sink}, nil
}

// NewWithCore 以给定 core 构造（测试使用 observer）。
func NewWithCore(core zapcore.Core, corrID string) *Logger {
	z := zap.New(core)
	if corrID != "" {
		z = z.With(zap.String("corr_id", corrID))
	}
	return &Logger{z: z}
}

// Zap 暴露底层 zap.Logger（nil 时返回 no-op）。
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

// Close 刷新并关闭文件 sink。
func (l *Logger) Close() error {
	if l == nil || l.z == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

func (l *Logger) emit(lv zapcore.Level, comp, stage, msg string, fields []zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	if ce := l.z.Check(lv, msg); ce != nil {
		base := []zap.Field{zap.String("comp", comp), zap.String("stage", stage)}
		ce.Write(append(base, fields...)...)
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string, fields ...zap.Field) *Timer {
	l.emit(zapcore.InfoLevel, comp, "start", msg, fields)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 file_id 的 start。
func (l *Logger) StartWith(comp, msg, fileID string, fields ...zap.Field) *Timer {
	l.emit(zapcore.InfoLevel, comp, "start", msg, append([]zap.Field{zap.String("file_id", fileID)}, fields...))
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// DebugStart 输出调试级别的 start 类事件。
func (l *Logger) DebugStart(comp, msg, fileID string, fields ...zap.Field) {
	if fileID != "" {
		fields = append([]zap.Field{zap.String("file_id", fileID)}, fields...)
	}
	l.emit(zapcore.DebugLevel, comp, "start", msg, fields)
}

// Warn 记录告警（非错误，不带分类码）。
func (l *Logger) Warn(comp, msg string, fields ...zap.Field) {
	l.emit(zapcore.WarnLevel, comp, "warn", msg, fields)
}

// Error 记录 error 事件。
func (l *Logger) Error(comp string, code Code, msg string, durSince *time.Time, fields ...zap.Field) {
	l.ErrorWith(comp, code, msg, durSince, "", fields...)
}

// ErrorWith 支持 file_id。
func (l *Logger) ErrorWith(comp string, code Code, msg string, durSince *time.Time, fileID string, fields ...zap.Field) {
	base := []zap.Field{zap.String("code", string(code))}
	if durSince != nil {
		base = append(base, zap.Int64("dur_ms", time.Since(*durSince).Milliseconds()))
	}
	if fileID != "" {
		base = append(base, zap.String("file_id", fileID))
	}
	l.emit(zapcore.ErrorLevel, comp, "error", msg, append(base, fields...))
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	t0     time.Time
}

// Since 返回起点（供 Error 计算耗时）。
func (t *Timer) Since() *time.Time {
	if t == nil {
		return nil
	}
	return &t.t0
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64, fields ...zap.Field) {
	if t == nil || t.l == nil {
		return
	}
	base := []zap.Field{zap.Int64("dur_ms", time.Since(t.t0).Milliseconds())}
	if count > 0 {
		base = append(base, zap.Int64("count", count))
	}
	if t.fileID != "" {
		base = append(base, zap.String("file_id", t.fileID))
	}
	t.l.emit(zapcore.InfoLevel, t.comp, "finish", msg, append(base, fields...))
}
