package logging

import (
	"os"
	"sync"
)

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		providers:    make([]LoggerProvider, 0),
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台日志（输出到 stderr，stdout 留给命令结果）
func (b *LoggingBuilder) AddConsole(options ...ZapLoggerOptions) *LoggingBuilder {
	opts := ZapLoggerOptions{
		Encoding:         "console",
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      true,
		Output:           os.Stderr,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewZapLoggerProvider(opts))
}

// AddJSON 添加 JSON 格式日志
func (b *LoggingBuilder) AddJSON(options ...ZapLoggerOptions) *LoggingBuilder {
	opts := ZapLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02T15:04:05.000Z07:00",
		Output:           os.Stderr,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	opts.Encoding = "json"
	return b.AddProvider(NewZapLoggerProvider(opts))
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		providers:    make([]LoggerProvider, 0, len(b.providers)),
		minimumLevel: b.minimumLevel,
	}

	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}

	return factory
}
