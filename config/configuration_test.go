package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStore(t *testing.T) {
	store := NewValueStore()
	assert.NotNil(t, store.Load())

	store.Store(map[string]any{"key": "value"})

	loaded := store.Load()
	if loaded["key"] != "value" {
		t.Error("Load failed")
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}

	parts := cache.GetPathSegments("a:b.c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)

	// 命中缓存
	assert.Equal(t, parts, cache.GetPathSegments("a:b.c"))

	assert.Equal(t, []string{"a", "b"}, cache.GetPathSegments("a::b"))
	assert.Empty(t, cache.GetPathSegments(""))
}

func TestSourcesOverrideInOrder(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"assert": map[string]any{
				"destructive":  false,
				"bindReceiver": true,
			},
			"name": "base",
		}).
		AddInMemory(map[string]any{
			"assert": map[string]any{"destructive": true},
		}).
		Build()
	require.NoError(t, err)

	destructive, err := cfg.GetBool("assert:destructive")
	require.NoError(t, err)
	assert.True(t, destructive)

	bindReceiver, err := cfg.GetBool("assert.bindReceiver")
	require.NoError(t, err)
	assert.True(t, bindReceiver)

	assert.Equal(t, "base", cfg.Get("name"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("missing", "fallback"))
	assert.True(t, cfg.Has("assert"))
	assert.False(t, cfg.Has("assert:missing"))
}

func TestInMemorySourceIsCopied(t *testing.T) {
	data := map[string]any{"section": map[string]any{"key": 1}}
	cfg, err := NewConfigurationBuilder().AddInMemory(data).Build()
	require.NoError(t, err)

	data["section"].(map[string]any)["key"] = 2

	v, err := cfg.GetInt("section:key")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	all := cfg.GetAll()
	all["section"].(map[string]any)["key"] = 3
	v, _ = cfg.GetInt("section:key")
	assert.Equal(t, 1, v)
}

func TestYamlAndJsonFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "empower.yaml")
	jsonPath := filepath.Join(dir, "empower.json")

	require.NoError(t, os.WriteFile(yamlPath, []byte(`
assert:
  destructive: true
  patterns:
    - assert(value, [message])
`), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"assert": {"bindReceiver": false}}`), 0o644))

	cfg, err := NewConfigurationBuilder().
		AddYamlFile(yamlPath).
		AddJsonFile(jsonPath).
		AddYamlFile(filepath.Join(dir, "missing.yaml"), true).
		Build()
	require.NoError(t, err)

	var section struct {
		Destructive  bool     `json:"destructive"`
		BindReceiver *bool    `json:"bindReceiver"`
		Patterns     []string `json:"patterns"`
	}
	require.NoError(t, cfg.Bind("assert", &section))
	assert.True(t, section.Destructive)
	require.NotNil(t, section.BindReceiver)
	assert.False(t, *section.BindReceiver)
	assert.Equal(t, []string{"assert(value, [message])"}, section.Patterns)
}

func TestRequiredFileMissing(t *testing.T) {
	_, err := NewConfigurationBuilder().
		AddYamlFile(filepath.Join(t.TempDir(), "missing.yaml")).
		Build()
	assert.Error(t, err)
}

func TestInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assert: [unclosed"), 0o644))

	_, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	assert.ErrorContains(t, err, "YamlFile")
}

func TestEmptyYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)
	assert.Empty(t, cfg.GetAll())
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("EMPOWERTEST_assert__destructive", "true")
	t.Setenv("EMPOWERTEST_assert__bindReceiver", "false")
	t.Setenv("EMPOWERTEST_level", "debug")

	cfg, err := NewConfigurationBuilder().
		AddEnvironmentVariables("EMPOWERTEST_").
		Build()
	require.NoError(t, err)

	section := cfg.GetSection("assert").GetAll()
	assert.Equal(t, map[string]any{"destructive": true, "bindReceiver": false}, section)
	assert.Equal(t, "debug", cfg.Get("level"))
}

func TestEnvironmentVariableScalars(t *testing.T) {
	t.Setenv("EMPOWERTEST_flags__one", "1")
	t.Setenv("EMPOWERTEST_flags__yes", "true")
	t.Setenv("EMPOWERTEST_flags__no", "FALSE")
	t.Setenv("EMPOWERTEST_flags__ratio", "0.5")

	cfg, err := NewConfigurationBuilder().
		AddEnvironmentVariables("EMPOWERTEST_").
		Build()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"one":   1,
		"yes":   true,
		"no":    false,
		"ratio": 0.5,
	}, cfg.GetSection("flags").GetAll())
}

func TestGetSectionMissing(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{"a": 1}).Build()
	require.NoError(t, err)

	assert.Empty(t, cfg.GetSection("missing").GetAll())
	assert.Empty(t, cfg.GetSection("a").GetAll())
}

func TestLoadHelper(t *testing.T) {
	type server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{
		"server": map[string]any{"host": "localhost", "port": 9001},
	}).Build()
	require.NoError(t, err)

	s, err := Load[server](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, server{Host: "localhost", Port: 9001}, s)

	_, err = Load[server](cfg, "missing")
	assert.Error(t, err)
}

// countingSource 每次加载返回递增的版本号
type countingSource struct {
	loads atomic.Int32
	fail  atomic.Bool
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load() (map[string]any, error) {
	if s.fail.Load() {
		return nil, errors.New("unavailable")
	}
	n := s.loads.Add(1)
	return map[string]any{"version": int(n)}, nil
}

func TestReload(t *testing.T) {
	src := &countingSource{}
	cfg, err := NewConfigurationBuilder().Add(src).BuildReloadable()
	require.NoError(t, err)

	var notified atomic.Int32
	cfg.OnReload(func() { notified.Add(1) })

	v, _ := cfg.GetInt("version")
	assert.Equal(t, 1, v)

	require.NoError(t, cfg.Reload())
	v, _ = cfg.GetInt("version")
	assert.Equal(t, 2, v)
	assert.EqualValues(t, 1, notified.Load())

	// 失败时保留旧数据，不触发回调
	src.fail.Store(true)
	assert.Error(t, cfg.Reload())
	v, _ = cfg.GetInt("version")
	assert.Equal(t, 2, v)
	assert.EqualValues(t, 1, notified.Load())
}

func TestEtcdSourceDecode(t *testing.T) {
	fetch := func(ctx context.Context, prefix string) ([]KV, error) {
		assert.Equal(t, "/empower", prefix)
		return []KV{
			{Key: "/empower/assert/destructive", Value: []byte("true")},
			{Key: "/empower/assert/patterns", Value: []byte(`["assert(value)"]`)},
			{Key: "/empower/assert/extra", Value: []byte("a: 1\nb: two\n")},
			{Key: "/empower/name", Value: []byte("plain text")},
			{Key: "/empower/", Value: []byte("ignored")},
		}, nil
	}

	cfg, err := NewConfigurationBuilder().
		Add(NewEtcdSourceWithFetcher(EtcdOptions{Prefix: "/empower"}, fetch)).
		Build()
	require.NoError(t, err)

	destructive, err := cfg.GetBool("assert:destructive")
	require.NoError(t, err)
	assert.True(t, destructive)
	assert.Equal(t, []any{"assert(value)"}, cfg.GetAll()["assert"].(map[string]any)["patterns"])
	assert.Equal(t, "two", cfg.Get("assert:extra:b"))
	assert.Equal(t, "plain text", cfg.Get("name"))
}

func TestEtcdSourceError(t *testing.T) {
	boom := errors.New("etcd down")
	src := NewEtcdSourceWithFetcher(EtcdOptions{}, func(context.Context, string) ([]KV, error) {
		return nil, boom
	})

	_, err := NewConfigurationBuilder().Add(src).Build()
	assert.ErrorIs(t, err, boom)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empower.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).BuildReloadable()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := Watch(ctx, cfg, []string{path}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o644))

	assert.Eventually(t, func() bool {
		v, err := cfg.GetInt("version")
		return err == nil && v == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func BenchmarkConfigGet(b *testing.B) {
	builder := NewConfigurationBuilder()
	builder.AddInMemory(map[string]any{
		"server": map[string]any{
			"host": "localhost",
			"port": 8080,
		},
	})
	config, _ := builder.BuildReloadable()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config.Get("server:host")
	}
}
