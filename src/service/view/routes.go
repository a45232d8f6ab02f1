package view

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the view API under rg
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	views := rg.Group("/views")
	{
		views.GET("", handlers.HandleListViews)
		views.GET("/:id", handlers.HandleGetView)
		views.GET("/:id/summary", handlers.HandleSummary)
		views.GET("/:id/functions", handlers.HandleFunctions)
		views.DELETE("/:id", handlers.HandleDeleteView)
	}
}

// NewRouter builds the complete HTTP router: health, prometheus metrics and
// the versioned view API
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	RegisterRoutes(v1, handlers)
	return router
}
