// Package api is the operator-facing REST surface: plain CRUD over messages,
// groups, templates and the LINE channel settings. The dispatch engine never
// imports this package.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	log *zap.Logger,
	messages *MessageHandler,
	groups *GroupHandler,
	templates *TemplateHandler,
	settings *SettingsHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(log))

	v1 := r.Group("/api")
	{
		v1.GET("/messages", messages.List)
		v1.POST("/messages", messages.Create)
		v1.GET("/messages/:id", messages.Get)
		v1.PUT("/messages/:id", messages.Update)
		v1.DELETE("/messages/:id", messages.Delete)

		v1.GET("/groups", groups.List)
		v1.POST("/groups", groups.Create)
		v1.GET("/groups/:id", groups.Get)
		v1.PUT("/groups/:id", groups.Update)
		v1.DELETE("/groups/:id", groups.Delete)

		v1.GET("/templates", templates.List)
		v1.POST("/templates", templates.Create)
		v1.GET("/templates/:id", templates.Get)
		v1.PUT("/templates/:id", templates.Update)
		v1.DELETE("/templates/:id", templates.Delete)

		v1.GET("/settings", settings.Get)
		v1.PUT("/settings", settings.Put)
	}
	return r
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
