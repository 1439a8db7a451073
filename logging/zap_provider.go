package logging

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerOptions zap 日志选项
type ZapLoggerOptions struct {
	// Encoding 输出格式："console" 或 "json"
	Encoding         string
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
}

// ZapLoggerProvider 基于 zap 的日志提供者
type ZapLoggerProvider struct {
	root         *zap.Logger
	minimumLevel atomic.Int32
}

// NewZapLoggerProvider 根据选项创建 zap 日志提供者
func NewZapLoggerProvider(options ZapLoggerOptions) *ZapLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.MessageKey = "message"
	encoderConfig.NameKey = "category"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if options.ColorOutput && options.Encoding != "json" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if options.IncludeTimestamp {
		format := options.TimestampFormat
		if format == "" {
			format = "2006-01-02 15:04:05"
		}
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(format)
	} else {
		encoderConfig.TimeKey = ""
	}

	var encoder zapcore.Encoder
	if options.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// 级别过滤由 provider 自己完成，core 放行全部级别
	core := zapcore.NewCore(encoder, zapcore.AddSync(options.Output), zapcore.DebugLevel)
	return NewZapLoggerProviderFromCore(core)
}

// NewZapLoggerProviderFromCore 使用已有的 zapcore.Core 创建提供者（测试时可传入 observer）
func NewZapLoggerProviderFromCore(core zapcore.Core) *ZapLoggerProvider {
	p := &ZapLoggerProvider{root: zap.New(core)}
	p.minimumLevel.Store(int32(LogLevelInfo))
	return p
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	return &zapLogger{
		provider: p,
		category: category,
		logger:   named(p.root, category),
	}
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.minimumLevel.Store(int32(level))
}

// Sync 刷新缓冲
func (p *ZapLoggerProvider) Sync() error {
	return p.root.Sync()
}

func (p *ZapLoggerProvider) enabled(level LogLevel) bool {
	return level >= LogLevel(p.minimumLevel.Load())
}

// zapLogger zap 日志实现
type zapLogger struct {
	provider *ZapLoggerProvider
	category string
	fields   []Field
	logger   *zap.Logger
}

func (l *zapLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
}

func (l *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.provider.enabled(level) {
		return
	}

	zfields := toZapFields(fields)
	switch level {
	case LogLevelTrace:
		l.logger.Debug(msg, append(zfields, zap.Bool("trace", true))...)
	case LogLevelDebug:
		l.logger.Debug(msg, zfields...)
	case LogLevelInfo:
		l.logger.Info(msg, zfields...)
	case LogLevelWarn:
		l.logger.Warn(msg, zfields...)
	case LogLevelError:
		l.logger.Error(msg, zfields...)
	case LogLevelFatal:
		// zap 写完日志后调用 os.Exit(1)
		l.logger.Fatal(msg, zfields...)
	default:
		l.logger.Info(msg, zfields...)
	}
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{
		provider: l.provider,
		category: l.category,
		fields:   mergeFields(l.fields, fields),
		logger:   l.logger.With(toZapFields(fields)...),
	}
}

func (l *zapLogger) WithCategory(category string) Logger {
	return &zapLogger{
		provider: l.provider,
		category: category,
		fields:   l.fields,
		logger:   named(l.provider.root, category).With(toZapFields(l.fields)...),
	}
}

func named(root *zap.Logger, category string) *zap.Logger {
	if category == "" {
		return root
	}
	return root.Named(category)
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
