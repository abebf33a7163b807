package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/http/dto"
)

type SensorHandler struct {
	dispatcher dispatch.Service
}

func NewSensorHandler(dispatcher dispatch.Service) *SensorHandler {
	return &SensorHandler{dispatcher: dispatcher}
}

// Ingest handles POST /wh/sensor. The body is a JSON array of readings;
// unrecognized formats are silently skipped and the response is always 200.
func (h *SensorHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var elements []dto.SensorElement
	if err := c.ShouldBindJSON(&elements); err != nil {
		slog.WarnContext(ctx, "unreadable sensor body", "error", err)
		c.Status(http.StatusOK)
		return
	}

	readings := make([]dispatch.SensorReading, 0, len(elements))
	for _, el := range elements {
		readings = append(readings, dispatch.SensorReading{
			Demozone: el.Demozone,
			Format:   el.Payload.Format,
			Data:     el.Payload.Data,
		})
	}

	accepted := h.dispatcher.DispatchSensors(ctx, readings)
	slog.DebugContext(ctx, "sensor batch processed", "received", len(elements), "accepted", accepted)

	c.Status(http.StatusOK)
}
