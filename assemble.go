package empower

import (
	"fmt"

	"github.com/gocrud/empower/config"
	"github.com/gocrud/empower/engine"
)

// DefaultSection 配置中存放断言选项的节名
const DefaultSection = "empower"

// Assemble 组装最终交给引擎的选项：
// 先取解析后的默认值，再逐键覆盖配置节中的用户设置，最后校验类型。
// 配置节不存在时直接返回默认值。
func Assemble(resolver *Resolver, cfg config.Configuration, section string) (engine.Options, error) {
	options, err := resolver.ResolveDefaultOptions()
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.Has(section) {
		overrides := engine.Options(cfg.GetSection(section).GetAll())
		for key, value := range overrides.Clone() {
			options[key] = value
		}
	}

	if err := engine.Validate(options); err != nil {
		return nil, fmt.Errorf("empower: invalid options in section %q: %w", section, err)
	}

	return options, nil
}
