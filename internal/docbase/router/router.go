// Package router 注册 HTTP 路由。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docbase/internal/docbase/handler"
)

// Handlers 汇总全部接入层 handler。
type Handlers struct {
	Project  *handler.ProjectHandler
	Document *handler.DocumentHandler
	Chat     *handler.ChatHandler
}

// New 构建 gin 引擎并注册路由。
func New(h *Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	{
		v1.GET("/stats", h.Project.Stats)

		projects := v1.Group("/projects")
		{
			projects.POST("", h.Project.Create)
			projects.GET("", h.Project.List)
			projects.GET("/:id", h.Project.Get)
			projects.DELETE("/:id", h.Project.Delete)

			projects.POST("/:id/documents", h.Document.Upload)
			projects.GET("/:id/documents", h.Document.List)

			projects.POST("/:id/chats", h.Chat.Create)
			projects.GET("/:id/chats", h.Chat.List)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("/:id", h.Document.Get)
			documents.GET("/:id/download", h.Document.Download)
			documents.DELETE("/:id", h.Document.Delete)
		}

		chats := v1.Group("/chats")
		{
			chats.GET("/:id", h.Chat.Get)
			chats.PATCH("/:id", h.Chat.Rename)
			chats.DELETE("/:id", h.Chat.Delete)
			chats.POST("/:id/documents", h.Chat.AddDocuments)
			chats.POST("/:id/messages", h.Chat.Ask)
			chats.GET("/:id/messages", h.Chat.Messages)
		}

		v1.GET("/messages/:id/sources", h.Chat.Sources)
	}

	return engine
}
