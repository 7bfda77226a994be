package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hearthlabs/hearth/internal/middleware"
)

type RouterDeps struct {
	Ingest    *IngestHandler
	Search    *SearchHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/files", deps.Ingest.Upload)
	authGroup.GET("/files/:id/status", deps.Ingest.Status)
	authGroup.POST("/messages/ingest", deps.Ingest.IngestMessage)
	authGroup.POST("/search", deps.Search.Search)
	authGroup.DELETE("/sources/:type/:id", deps.Ingest.DeleteSource)
	authGroup.DELETE("/conversations/:id/index", deps.Ingest.DeleteConversationIndex)
}
