package controllers

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/realtime"
)

// RequestEvents upgrades to a websocket that streams request.created and request.updated events.
func RequestEvents(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
