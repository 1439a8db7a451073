package engine

import "sync"

// DefaultsProvider 默认选项提供者
type DefaultsProvider interface {
	// DefaultOptions 返回一份基础配置
	DefaultOptions() (Options, error)
}

// ProviderFunc 函数形式的 DefaultsProvider
type ProviderFunc func() (Options, error)

// DefaultOptions 实现 DefaultsProvider
func (f ProviderFunc) DefaultOptions() (Options, error) {
	return f()
}

// DefaultPatterns 引擎默认识别的断言调用形式
var DefaultPatterns = []string{
	"assert(value, [message])",
	"assert.ok(value, [message])",
	"assert.equal(actual, expected, [message])",
	"assert.notEqual(actual, expected, [message])",
	"assert.strictEqual(actual, expected, [message])",
	"assert.notStrictEqual(actual, expected, [message])",
	"assert.deepEqual(actual, expected, [message])",
	"assert.notDeepEqual(actual, expected, [message])",
	"assert.deepStrictEqual(actual, expected, [message])",
	"assert.notDeepStrictEqual(actual, expected, [message])",
}

// BaseOptions 引擎内置的默认选项
func BaseOptions() Options {
	patterns := make([]string, len(DefaultPatterns))
	copy(patterns, DefaultPatterns)
	return Options{
		KeyDestructive:      false,
		KeyBindReceiver:     true,
		KeyPatterns:         patterns,
		KeyWrapOnlyPatterns: []string{},
	}
}

// Registry 进程级默认选项存储
// 所有读取都返回副本，外部修改不会影响存储内容
type Registry struct {
	base    Options
	current Options
	mu      sync.RWMutex
}

// NewRegistry 创建默认选项存储，base 为空时视为空配置
func NewRegistry(base Options) *Registry {
	if base == nil {
		base = make(Options)
	}
	return &Registry{
		base:    base.Clone(),
		current: base.Clone(),
	}
}

// DefaultOptions 返回当前默认选项的副本
func (r *Registry) DefaultOptions() (Options, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone(), nil
}

// Set 修改一个默认选项
func (r *Registry) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[key] = cloneValue(value)
}

// Delete 删除一个默认选项
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.current, key)
}

// Reset 恢复到创建时的默认选项
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = r.base.Clone()
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// Global 返回全局默认选项存储
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry(BaseOptions())
	})
	return globalRegistry
}

// DefaultOptions 返回全局默认选项
func DefaultOptions() (Options, error) {
	return Global().DefaultOptions()
}
