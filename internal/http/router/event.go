package router

import (
	"github.com/gin-gonic/gin"

	"stayhub.app/eventhub/internal/http/handler"
)

func EventRouter(router *gin.RouterGroup, events *handler.EventHandler, sensors *handler.SensorHandler) {
	router.POST("/event/:eventname", events.Ingest)
	router.POST("/sensor", sensors.Ingest)
}
