package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/order"
	"gofer/internal/types"
)

type DispatchHandler struct {
	dispatch *dispatch.Coordinator
	orders   *order.Service
}

func NewDispatchHandler(coord *dispatch.Coordinator, orderSvc *order.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: coord, orders: orderSvc}
}

// Trigger starts the offer cycle for an order. Food orders trigger when the
// merchant marks them ready; rides and parcels trigger right after creation.
func (h *DispatchHandler) Trigger(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.orders.Get(ctx, types.ID(c.Param("id")))
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	fee := o.RiderEarnings
	if o.ServiceType == order.ServiceRide {
		fee = o.DeliveryFee
	}
	res, err := h.dispatch.Dispatch(ctx, dispatch.Request{
		OrderID:        o.ID,
		Origin:         o.Origin,
		Category:       string(o.Category),
		PickupAddress:  o.PickupAddress,
		DropoffAddress: o.DropoffAddress,
		Fee:            fee,
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dispatchResponse(o.ID, res))
}

type respondReq struct {
	CourierID string `json:"courier_id"`
	Accepted  *bool  `json:"accepted"`
}

// Respond applies a courier's accept or reject to their outstanding offer.
func (h *DispatchHandler) Respond(c *gin.Context) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil || req.CourierID == "" || req.Accepted == nil {
		writeError(c, http.StatusBadRequest, "missing courier_id or accepted")
		return
	}
	orderID := types.ID(c.Param("id"))
	err := h.dispatch.HandleResponse(c.Request.Context(), orderID, types.ID(req.CourierID), *req.Accepted)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"order_id": orderID, "accepted": *req.Accepted})
}

func (h *DispatchHandler) Status(c *gin.Context) {
	orderID := types.ID(c.Param("id"))
	res, running := h.dispatch.Status(orderID)
	if !running {
		writeError(c, http.StatusNotFound, "no dispatch cycle for order")
		return
	}
	writeJSON(c, http.StatusOK, dispatchResponse(orderID, res))
}

func dispatchResponse(orderID types.ID, res dispatch.Result) map[string]any {
	resp := map[string]any{
		"order_id":   orderID,
		"state":      res.State,
		"candidates": res.Candidates,
	}
	if res.CourierID != "" {
		resp["courier_id"] = res.CourierID
	}
	return resp
}
