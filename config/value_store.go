package config

import "sync/atomic"

// ValueStore 原子保存一份配置快照，读取无锁
// 存入后的 map 视为只读，更新时整体替换
type ValueStore struct {
	value atomic.Pointer[map[string]any]
}

// NewValueStore 创建新的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(make(map[string]any))
	return s
}

// Load 加载当前配置快照
func (s *ValueStore) Load() map[string]any {
	p := s.value.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Store 原子替换配置数据
func (s *ValueStore) Store(data map[string]any) {
	s.value.Store(&data)
}
