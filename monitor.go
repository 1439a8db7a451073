package empower

import (
	"sync"

	"github.com/gocrud/empower/config"
	"github.com/gocrud/empower/engine"
	"github.com/gocrud/empower/logging"
)

// Monitor 持有最新组装好的选项，配置重载时自动更新
type Monitor struct {
	resolver *Resolver
	config   config.Configuration
	section  string
	logger   logging.Logger

	current engine.Options
	mu      sync.RWMutex
}

// NewMonitor 创建选项监视器并完成首次组装
// 如果 cfg 支持重载回调，则在每次重载后重新组装
func NewMonitor(resolver *Resolver, cfg config.Configuration, section string, logger logging.Logger) (*Monitor, error) {
	m := &Monitor{
		resolver: resolver,
		config:   cfg,
		section:  section,
		logger:   logging.OrNop(logger),
	}

	if err := m.reload(); err != nil {
		return nil, err
	}

	if rc, ok := cfg.(interface{ OnReload(func()) }); ok {
		rc.OnReload(func() {
			if err := m.reload(); err != nil {
				// 保留上一次成功的结果
				m.logger.Error("Failed to reassemble options, keeping previous value",
					logging.Field{Key: "section", Value: section},
					logging.Field{Key: "error", Value: err})
				return
			}
			m.logger.Info("Options reassembled", logging.Field{Key: "section", Value: section})
		})
	}

	return m, nil
}

func (m *Monitor) reload() error {
	options, err := Assemble(m.resolver, m.config, m.section)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = options
	m.mu.Unlock()
	return nil
}

// Value 返回当前选项的副本
func (m *Monitor) Value() engine.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}
