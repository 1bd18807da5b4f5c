package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/notify"
	"gofer/internal/types"
)

type WSHandler struct {
	hub *notify.Hub
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect upgrades to a websocket and registers the device for pushes
// (job offers for couriers, status changes for customers).
func (h *WSHandler) Connect(c *gin.Context) {
	userID := types.ID(c.Param("user_id"))
	if userID == "" {
		writeError(c, http.StatusBadRequest, "missing user id")
		return
	}
	h.hub.HandleConnection(c.Writer, c.Request, userID)
}
