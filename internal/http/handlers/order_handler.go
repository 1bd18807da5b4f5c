package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/modules/courier"
	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/order"
	"gofer/internal/modules/pricing"
	"gofer/internal/types"
)

type OrderHandler struct {
	order    *order.Service
	couriers *courier.Service
	dispatch *dispatch.Coordinator
}

func NewOrderHandler(orderSvc *order.Service, courierSvc *courier.Service, coord *dispatch.Coordinator) *OrderHandler {
	return &OrderHandler{order: orderSvc, couriers: courierSvc, dispatch: coord}
}

type pointReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createOrderReq struct {
	CustomerID     string    `json:"customer_id"`
	MerchantID     string    `json:"merchant_id"`
	ServiceType    string    `json:"service_type"`
	Category       string    `json:"category"`
	Pickup         *pointReq `json:"pickup"`
	Dropoff        *pointReq `json:"dropoff"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	Note           string    `json:"note"`
	ItemsSubtotal  float64   `json:"items_subtotal"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.CreateCommand{
		CustomerID:     types.ID(req.CustomerID),
		ServiceType:    order.ServiceType(req.ServiceType),
		Category:       pricing.Category(req.Category),
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Note:           req.Note,
		ItemsSubtotal:  req.ItemsSubtotal,
	}
	if req.MerchantID != "" {
		mid := types.ID(req.MerchantID)
		cmd.MerchantID = &mid
	}
	if req.Pickup != nil {
		cmd.Origin = &types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	}
	if req.Dropoff != nil {
		cmd.Destination = &types.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}
	}

	o, err := h.order.Create(c.Request.Context(), cmd)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, orderResponse(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderResponse(o))
}

type merchantActionReq struct {
	MerchantID string `json:"merchant_id"`
}

func (h *OrderHandler) Confirm(c *gin.Context) {
	h.merchantTransition(c, h.order.Confirm)
}

func (h *OrderHandler) Prepare(c *gin.Context) {
	h.merchantTransition(c, h.order.Prepare)
}

func (h *OrderHandler) Ready(c *gin.Context) {
	h.merchantTransition(c, h.order.Ready)
}

func (h *OrderHandler) merchantTransition(c *gin.Context, fn func(ctx context.Context, id, merchantID types.ID) error) {
	var req merchantActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.MerchantID == "" {
		writeError(c, http.StatusBadRequest, "missing merchant_id")
		return
	}
	id := types.ID(c.Param("id"))
	if err := fn(c.Request.Context(), id, types.ID(req.MerchantID)); err != nil {
		writeOrderError(c, err)
		return
	}
	h.writeStatus(c, id)
}

type courierActionReq struct {
	CourierID string `json:"courier_id"`
}

func (h *OrderHandler) PickUp(c *gin.Context) {
	var req courierActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.CourierID == "" {
		writeError(c, http.StatusBadRequest, "missing courier_id")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.order.PickUp(c.Request.Context(), id, types.ID(req.CourierID)); err != nil {
		writeOrderError(c, err)
		return
	}
	h.writeStatus(c, id)
}

func (h *OrderHandler) Deliver(c *gin.Context) {
	var req courierActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.CourierID == "" {
		writeError(c, http.StatusBadRequest, "missing courier_id")
		return
	}
	ctx := c.Request.Context()
	id := types.ID(c.Param("id"))
	if err := h.order.Deliver(ctx, id, types.ID(req.CourierID)); err != nil {
		writeOrderError(c, err)
		return
	}
	// The daily load counter feeds the matching score; a failed bump is not
	// worth failing the delivery over.
	_ = h.couriers.IncrementDeliveries(ctx, types.ID(req.CourierID))
	h.writeStatus(c, id)
}

type cancelReq struct {
	ActorType string `json:"actor_type"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ActorType == "" {
		writeError(c, http.StatusBadRequest, "missing actor_type")
		return
	}
	ctx := c.Request.Context()
	id := types.ID(c.Param("id"))

	cmd := order.CancelCommand{OrderID: id, ActorType: req.ActorType, Reason: req.Reason}
	if req.ActorID != "" {
		aid := types.ID(req.ActorID)
		cmd.ActorID = &aid
	}
	if err := h.order.Cancel(ctx, cmd); err != nil {
		writeOrderError(c, err)
		return
	}
	// Tear down any running offer cycle so its courier is freed.
	h.dispatch.Cancel(ctx, id)
	h.writeStatus(c, id)
}

func (h *OrderHandler) writeStatus(c *gin.Context, id types.ID) {
	o, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"order_id": o.ID, "status": o.Status})
}

func orderResponse(o *order.Order) map[string]any {
	resp := map[string]any{
		"order_id":        o.ID,
		"order_number":    o.OrderNumber,
		"customer_id":     o.CustomerID,
		"service_type":    o.ServiceType,
		"category":        o.Category,
		"status":          o.Status,
		"pickup":          pointReq{Lat: o.Origin.Lat, Lng: o.Origin.Lng},
		"dropoff":         pointReq{Lat: o.Destination.Lat, Lng: o.Destination.Lng},
		"pickup_address":  o.PickupAddress,
		"dropoff_address": o.DropoffAddress,
		"distance_km":     o.DistanceKm,
		"subtotal":        o.Subtotal,
		"delivery_fee":    o.DeliveryFee,
		"surge_fee":       o.SurgeFee,
		"platform_fee":    o.PlatformFee,
		"total":           o.Total,
		"is_surge":        o.IsSurge,
		"created_at":      o.CreatedAt,
	}
	if o.MerchantID != nil {
		resp["merchant_id"] = *o.MerchantID
	}
	if o.RiderID != nil {
		resp["rider_id"] = *o.RiderID
	}
	return resp
}
