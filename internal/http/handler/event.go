package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/http/dto"
	"stayhub.app/eventhub/internal/schema"
)

type EventHandler struct {
	dispatcher dispatch.Service
}

func NewEventHandler(dispatcher dispatch.Service) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Ingest handles POST /wh/event/:eventname. The caller only ever sees 204 or
// 405: broker-forwarding health is observable through logs, never through
// the response.
func (h *EventHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()
	eventName := c.Param("eventname")

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		slog.WarnContext(ctx, "unreadable event body", "event", eventName, "error", err)
		c.JSON(http.StatusMethodNotAllowed, dto.RejectResponse{Error: "invalid JSON body"})
		return
	}

	_, err := h.dispatcher.Dispatch(ctx, eventName, payload)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownEvent) {
			c.JSON(http.StatusMethodNotAllowed, dto.RejectResponse{Error: err.Error()})
			return
		}
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusMethodNotAllowed, dto.RejectResponse{Error: verr.Error(), Field: verr.FieldPath})
			return
		}
		// Dispatch only surfaces rejection errors; anything else still maps
		// to the 204/405 contract.
		slog.ErrorContext(ctx, "unexpected dispatch error", "event", eventName, "error", err)
		c.JSON(http.StatusMethodNotAllowed, dto.RejectResponse{Error: "rejected"})
		return
	}

	c.Status(http.StatusNoContent)
}
