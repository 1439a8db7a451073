package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/empower/engine"
	"github.com/gocrud/empower/logging"
)

// DefaultsResolver 解析默认选项
type DefaultsResolver interface {
	ResolveDefaultOptions() (engine.Options, error)
}

// OptionsSource 提供当前组装好的选项
type OptionsSource interface {
	Value() engine.Options
}

// OptionsController 暴露断言选项的只读接口
//
//	GET /options/defaults  解析后的默认选项
//	GET /options           当前组装好的选项（未配置 Current 时返回 404）
type OptionsController struct {
	Defaults DefaultsResolver
	Current  OptionsSource
	Logger   logging.Logger
}

// MountRoutes 注册路由
func (c *OptionsController) MountRoutes(router gin.IRouter) {
	group := router.Group("/options")
	group.GET("/defaults", c.getDefaults)
	group.GET("", c.getCurrent)
}

func (c *OptionsController) getDefaults(ctx *gin.Context) {
	options, err := c.Defaults.ResolveDefaultOptions()
	if err != nil {
		logging.OrNop(c.Logger).Error("Failed to resolve default options", logging.Field{Key: "error", Value: err})
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, options)
}

func (c *OptionsController) getCurrent(ctx *gin.Context) {
	if c.Current == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no assembled options configured"})
		return
	}
	ctx.JSON(http.StatusOK, c.Current.Value())
}
