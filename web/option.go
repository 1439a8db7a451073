package web

import "github.com/gocrud/empower/logging"

// BuilderOption 用于配置 Web Builder
type BuilderOption func(*Builder)

// WithPort 设置端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) {
		b.UsePort(port)
	}
}

// WithHost 设置监听地址
func WithHost(host string) BuilderOption {
	return func(b *Builder) {
		b.UseHost(host)
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) BuilderOption {
	return func(b *Builder) {
		b.UseLogger(logger)
	}
}

// WithControllers 添加控制器
func WithControllers(controllers ...Controller) BuilderOption {
	return func(b *Builder) {
		b.AddControllers(controllers...)
	}
}

// New 按选项构建 Web 主机
func New(opts ...BuilderOption) *Host {
	builder := NewBuilder()
	for _, opt := range opts {
		opt(builder)
	}
	return builder.Build()
}
