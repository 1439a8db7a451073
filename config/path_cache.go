package config

import (
	"strings"
	"sync"
)

// PathCache 缓存配置路径解析结果
type PathCache struct {
	cache sync.Map // path -> []string
}

// GetPathSegments 获取路径片段，如果缓存不存在则解析并缓存
// ":" 和 "." 都是分隔符，空片段会被丢弃（"a::b" 等价于 "a:b"）
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	actual, _ := c.cache.LoadOrStore(path, parts)
	return actual.([]string)
}

var globalPathCache = &PathCache{}
