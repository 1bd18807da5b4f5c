// Package handlers contains the HTTP endpoints; they parse, delegate to
// module services, and map domain errors to status codes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/modules/courier"
	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/order"
	"gofer/internal/modules/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeOrderError(c *gin.Context, err error) {
	switch err {
	case order.ErrBadRequest, pricing.ErrUnknownCategory:
		writeError(c, http.StatusBadRequest, err.Error())
	case order.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case order.ErrInvalidState, order.ErrConflict:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeCourierError(c *gin.Context, err error) {
	switch err {
	case courier.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case courier.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDispatchError(c *gin.Context, err error) {
	switch err {
	case dispatch.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case dispatch.ErrDispatchInProgress:
		writeError(c, http.StatusConflict, err.Error())
	case dispatch.ErrNoActiveOffer:
		// The offer moved on; tell the courier app the job is gone.
		writeError(c, http.StatusGone, err.Error())
	case order.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
