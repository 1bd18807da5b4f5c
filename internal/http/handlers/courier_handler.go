package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/modules/courier"
	"gofer/internal/types"
)

type CourierHandler struct {
	couriers *courier.Service
}

func NewCourierHandler(svc *courier.Service) *CourierHandler {
	return &CourierHandler{couriers: svc}
}

type registerCourierReq struct {
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	VehicleType  string `json:"vehicle_type"`
	VehiclePlate string `json:"vehicle_plate"`
}

func (h *CourierHandler) Register(c *gin.Context) {
	var req registerCourierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := courier.RegisterCommand{
		FullName:     req.FullName,
		Phone:        req.Phone,
		VehicleType:  req.VehicleType,
		VehiclePlate: req.VehiclePlate,
	}
	if req.UserID != "" {
		uid := types.ID(req.UserID)
		cmd.UserID = &uid
	}
	id, err := h.couriers.Register(c.Request.Context(), cmd)
	if err != nil {
		writeCourierError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"courier_id": id})
}

func (h *CourierHandler) Get(c *gin.Context) {
	cr, err := h.couriers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeCourierError(c, err)
		return
	}
	resp := map[string]any{
		"courier_id":       cr.ID,
		"full_name":        cr.FullName,
		"is_online":        cr.IsOnline,
		"is_approved":      cr.IsApproved,
		"rating":           cr.Rating,
		"acceptance_rate":  cr.AcceptanceRate,
		"total_deliveries": cr.TotalDeliveries,
	}
	if cr.Location != nil {
		resp["location"] = pointReq{Lat: cr.Location.Lat, Lng: cr.Location.Lng}
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *CourierHandler) UpdateLocation(c *gin.Context) {
	var req pointReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.couriers.UpdateLocation(c.Request.Context(), id, types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeCourierError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"courier_id": id})
}

type onlineReq struct {
	Online *bool `json:"online"`
}

func (h *CourierHandler) SetOnline(c *gin.Context) {
	var req onlineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		writeError(c, http.StatusBadRequest, "missing online flag")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.couriers.SetOnline(c.Request.Context(), id, *req.Online); err != nil {
		writeCourierError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"courier_id": id, "online": *req.Online})
}

func (h *CourierHandler) Approve(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.couriers.Approve(c.Request.Context(), id); err != nil {
		writeCourierError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"courier_id": id, "approved": true})
}

func (h *CourierHandler) Deactivate(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.couriers.Deactivate(c.Request.Context(), id); err != nil {
		writeCourierError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"courier_id": id, "active": false})
}
