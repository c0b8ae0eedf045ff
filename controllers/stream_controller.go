package controllers

import (
	"github.com/amaurycolochos7/shopp-kingice/events"
	"github.com/gin-gonic/gin"
)

// StreamController upgrades admin connections to the live order feed
type StreamController struct {
	hub *events.Hub
}

// NewStreamController creates a StreamController
func NewStreamController(hub *events.Hub) *StreamController {
	return &StreamController{hub: hub}
}

// OrderStream handles GET /api/admin/orders/stream
func (sc *StreamController) OrderStream(c *gin.Context) {
	sc.hub.ServeWS(c.Writer, c.Request)
}
