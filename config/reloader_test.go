package config

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gocrud/empower/logging"
)

func TestReloaderInvalidSchedule(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{}).BuildReloadable()
	require.NoError(t, err)

	_, err = NewReloader(cfg, "not a schedule")
	assert.ErrorContains(t, err, "invalid reload schedule")
}

func TestReloaderPicksUpEtcdChanges(t *testing.T) {
	var version atomic.Int32
	version.Store(1)
	var fail atomic.Bool
	fetch := func(ctx context.Context, prefix string) ([]KV, error) {
		if fail.Load() {
			return nil, errors.New("etcd down")
		}
		value := []byte{byte('0' + version.Load())}
		return []KV{{Key: prefix + "/version", Value: value}}, nil
	}

	cfg, err := NewConfigurationBuilder().
		Add(NewEtcdSourceWithFetcher(EtcdOptions{Prefix: "/empower"}, fetch)).
		BuildReloadable()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewLoggingBuilder().
		SetMinimumLevel(logging.LogLevelDebug).
		AddProvider(logging.NewZapLoggerProviderFromCore(core)).
		Build().
		CreateLogger("reloader")

	r, err := NewReloader(cfg, "@every 1s", WithReloaderLogger(logger))
	require.NoError(t, err)
	r.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, r.Stop(ctx))
	}()

	v, _ := cfg.GetInt("version")
	assert.Equal(t, 1, v)

	version.Store(2)
	assert.Eventually(t, func() bool {
		v, _ := cfg.GetInt("version")
		return v == 2
	}, 5*time.Second, 50*time.Millisecond)

	fail.Store(true)
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Scheduled configuration reload failed").Len() > 0
	}, 5*time.Second, 50*time.Millisecond)

	// 失败时保留上一次的配置
	v, _ = cfg.GetInt("version")
	assert.Equal(t, 2, v)
}

func TestReloaderStopWithoutStart(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{}).BuildReloadable()
	require.NoError(t, err)

	r, err := NewReloader(cfg, "*/10 * * * * *")
	require.NoError(t, err)
	assert.NoError(t, r.Stop(context.Background()))
}
