package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 请求超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// KV etcd 中的一条键值
type KV struct {
	Key   string
	Value []byte
}

// EtcdSource etcd 配置源
// 键 /prefix/assert/patterns 映射为 assert:patterns，值依次尝试按 JSON、YAML 解析
type EtcdSource struct {
	Options EtcdOptions

	// fetch 读取前缀下的所有键值，为空时连接 etcd
	fetch func(ctx context.Context, prefix string) ([]KV, error)
}

// NewEtcdSourceWithFetcher 使用自定义读取函数创建 etcd 配置源（便于测试）
func NewEtcdSourceWithFetcher(opts EtcdOptions, fetch func(ctx context.Context, prefix string) ([]KV, error)) *EtcdSource {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return &EtcdSource{Options: opts, fetch: fetch}
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	fetch := s.fetch
	if fetch == nil {
		fetch = s.fetchFromEtcd
	}

	kvs, err := fetch(ctx, prefix)
	if err != nil {
		return nil, err
	}

	return s.decode(kvs), nil
}

// fetchFromEtcd 连接 etcd 并读取前缀下的所有键
func (s *EtcdSource) fetchFromEtcd(ctx context.Context, prefix string) ([]KV, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	kvs := make([]KV, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		kvs = append(kvs, KV{Key: string(kv.Key), Value: kv.Value})
	}
	return kvs, nil
}

func (s *EtcdSource) decode(kvs []KV) map[string]any {
	result := make(map[string]any)

	for _, kv := range kvs {
		key := kv.Key

		if s.Options.Prefix != "" {
			key = strings.TrimPrefix(key, s.Options.Prefix)
		}
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}

		// 将路径分隔符 / 转换为 :
		key = strings.ReplaceAll(key, "/", ":")
		setNestedValue(result, key, decodeValue(kv.Value))
	}

	return result
}

// decodeValue 依次尝试 JSON、YAML，都失败则作为字符串
func decodeValue(raw []byte) any {
	var jsonValue any
	if err := json.Unmarshal(raw, &jsonValue); err == nil {
		return jsonValue
	}

	var yamlValue any
	if err := yaml.Unmarshal(raw, &yamlValue); err == nil && yamlValue != nil {
		return yamlValue
	}

	return string(raw)
}
