package config

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/empower/logging"
)

// Reloader 按 cron 表达式周期性重载配置
// 用于 etcd、环境变量这类无法通过文件事件感知变更的配置源
type Reloader struct {
	cron   *cron.Cron
	config ReloadableConfiguration
	logger logging.Logger
}

// ReloaderOption 周期重载选项
type ReloaderOption func(*Reloader)

// WithReloaderLogger 设置日志记录器
func WithReloaderLogger(logger logging.Logger) ReloaderOption {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// NewReloader 创建周期重载器
// spec 支持可选秒字段和描述符，如 "@every 30s"、"*/10 * * * * *"、"0 */5 * * *"
func NewReloader(cfg ReloadableConfiguration, spec string, opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		config: cfg,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(newCronLogger(r.logger))),
	)

	if _, err := r.cron.AddFunc(spec, r.reload); err != nil {
		return nil, fmt.Errorf("config: invalid reload schedule %q: %w", spec, err)
	}
	return r, nil
}

func (r *Reloader) reload() {
	if err := r.config.Reload(); err != nil {
		r.logger.Error("Scheduled configuration reload failed", logging.Field{Key: "error", Value: err})
		return
	}
	r.logger.Debug("Scheduled configuration reload completed")
}

// Start 启动调度（非阻塞）
func (r *Reloader) Start() {
	r.cron.Start()
}

// Stop 停止调度并等待正在执行的重载结束
func (r *Reloader) Stop(ctx context.Context) error {
	stopCtx := r.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配器：将日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
