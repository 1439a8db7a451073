package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/empower/engine"
)

type stubResolver struct {
	options engine.Options
	err     error
}

func (s stubResolver) ResolveDefaultOptions() (engine.Options, error) {
	return s.options, s.err
}

type stubSource engine.Options

func (s stubSource) Value() engine.Options {
	return engine.Options(s)
}

// PingController 简单控制器
type PingController struct{}

func (c *PingController) MountRoutes(router gin.IRouter) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})
}

func serve(t *testing.T, host *Host, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	host.Handler().ServeHTTP(w, req)

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestGetDefaults(t *testing.T) {
	host := New(WithControllers(&OptionsController{
		Defaults: stubResolver{options: engine.Options{
			"foo":                            1,
			engine.KeyModifyMessageOnRethrow: false,
		}},
	}))

	w, body := serve(t, host, "/options/defaults")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"foo": float64(1), engine.KeyModifyMessageOnRethrow: false}, body)
}

func TestGetDefaultsError(t *testing.T) {
	host := New(WithControllers(&OptionsController{
		Defaults: stubResolver{err: errors.New("engine unavailable")},
	}))

	w, body := serve(t, host, "/options/defaults")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "engine unavailable", body["error"])
}

func TestGetCurrent(t *testing.T) {
	host := New(WithControllers(&OptionsController{
		Defaults: stubResolver{},
		Current:  stubSource{engine.KeyDestructive: true},
	}))

	w, body := serve(t, host, "/options")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body[engine.KeyDestructive])
}

func TestGetCurrentNotConfigured(t *testing.T) {
	host := New(WithControllers(&OptionsController{Defaults: stubResolver{}}))

	w, _ := serve(t, host, "/options")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomController(t *testing.T) {
	host := New(WithControllers(&PingController{}))

	w, _ := serve(t, host, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestHostStartStop(t *testing.T) {
	host := New(WithHost("127.0.0.1"), WithPort(0), WithControllers(&PingController{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- host.Start(ctx)
	}()

	select {
	case <-host.Ready():
	case err := <-done:
		t.Fatalf("host exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not start")
	}

	resp, err := http.Get("http://" + host.Address() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}
}
