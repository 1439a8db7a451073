// Package empower 解析交给断言插桩引擎的选项
//
// 以引擎自身的默认选项为基础，关闭 rethrow 时改写消息和保存上下文的行为。
package empower

import (
	"github.com/gocrud/empower/engine"
	"github.com/gocrud/empower/logging"
)

// Resolver 默认选项解析器
type Resolver struct {
	provider engine.DefaultsProvider
	logger   logging.Logger
}

// ResolverOption 解析器选项
type ResolverOption func(*Resolver)

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver 创建解析器，provider 为引擎的默认选项提供者
func NewResolver(provider engine.DefaultsProvider, opts ...ResolverOption) *Resolver {
	r := &Resolver{provider: provider}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// ResolveDefaultOptions 返回引擎默认选项，并强制
// modifyMessageOnRethrow = false、saveContextOnRethrow = false
//
// 每次调用都会读取一次 provider，返回新的副本；provider 的错误原样返回。
func (r *Resolver) ResolveDefaultOptions() (engine.Options, error) {
	base, err := r.provider.DefaultOptions()
	if err != nil {
		return nil, err
	}

	resolved := base.Clone()
	if resolved == nil {
		resolved = make(engine.Options, 2)
	}
	resolved[engine.KeyModifyMessageOnRethrow] = false
	resolved[engine.KeySaveContextOnRethrow] = false

	r.logger.Trace("Resolved default options", logging.Field{Key: "keys", Value: len(resolved)})
	return resolved, nil
}

// ResolveDefaultOptions 使用全局引擎默认值解析
func ResolveDefaultOptions() (engine.Options, error) {
	return NewResolver(engine.Global()).ResolveDefaultOptions()
}
