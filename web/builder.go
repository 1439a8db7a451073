package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/empower/logging"
)

// DefaultPort 默认监听端口
const DefaultPort = 9001

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	logger      logging.Logger
	host        string
	port        int
	engine      *gin.Engine
	controllers []Controller
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	// 设置 Gin 为发布模式（默认）
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 默认中间件：恢复 panic
	engine.Use(gin.Recovery())

	return &Builder{
		port:        DefaultPort,
		engine:      engine,
		controllers: make([]Controller, 0),
	}
}

// UseLogger 设置日志记录器
func (b *Builder) UseLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// UseHost 设置监听地址
func (b *Builder) UseHost(host string) *Builder {
	b.host = host
	return b
}

// UsePort 设置端口，0 表示随机端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// AddControllers 注册控制器
func (b *Builder) AddControllers(controllers ...Controller) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// Build 构建 Web 主机并挂载所有控制器路由
func (b *Builder) Build() *Host {
	logger := logging.OrNop(b.logger)

	b.engine.Use(requestLogger(logger))
	for _, ctrl := range b.controllers {
		ctrl.MountRoutes(b.engine)
		logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: fmt.Sprintf("%T", ctrl)})
	}

	addr := fmt.Sprintf("%s:%d", b.host, b.port)
	return &Host{
		engine: b.engine,
		server: &http.Server{
			Addr:    addr,
			Handler: b.engine,
		},
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// requestLogger 记录每个请求
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("Request handled",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.Request.URL.Path},
			logging.Field{Key: "status", Value: c.Writer.Status()})
	}
}

// Host Web 主机
type Host struct {
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	ready     chan struct{}
	readyOnce sync.Once
	addrMu    sync.RWMutex
}

// Handler 返回 HTTP 处理器（便于测试）
func (h *Host) Handler() http.Handler {
	return h.engine
}

// Ready 在开始监听后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Address 获取监听地址 (e.g., "[::]:50234")
// 仅在 Ready 之后是实际地址
func (h *Host) Address() string {
	h.addrMu.RLock()
	defer h.addrMu.RUnlock()
	return h.server.Addr
}

// Start 启动 Web 主机
// 此方法会阻塞，直到 ctx 取消或服务出错；ctx 取消时会优雅关闭
func (h *Host) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Address())
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.Address(), err)
	}

	h.addrMu.Lock()
	h.server.Addr = ln.Addr().String()
	h.addrMu.Unlock()
	h.readyOnce.Do(func() { close(h.ready) })

	h.logger.Info("Web host started", logging.Field{Key: "address", Value: h.Address()})

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Web host error", logging.Field{Key: "error", Value: err})
			return err
		}
		return nil
	case <-ctx.Done():
		return h.Stop(context.Background())
	}
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully", logging.Field{Key: "error", Value: err})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}
