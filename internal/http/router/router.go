package router

import (
	"github.com/gin-gonic/gin"

	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, dispatcher dispatch.Service) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	wh := router.Group("/wh")
	EventRouter(wh, handler.NewEventHandler(dispatcher), handler.NewSensorHandler(dispatcher))
}
