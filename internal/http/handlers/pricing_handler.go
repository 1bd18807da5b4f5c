package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/geo"
	"gofer/internal/modules/pricing"
	"gofer/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type quoteReq struct {
	Category   string    `json:"category"`
	DistanceKm *float64  `json:"distance_km"`
	Pickup     *pointReq `json:"pickup"`
	Dropoff    *pointReq `json:"dropoff"`
}

// Quote prices a hypothetical job without creating an order. The caller
// sends either a distance or a pickup/dropoff pair.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	var distanceKm float64
	switch {
	case req.DistanceKm != nil:
		if *req.DistanceKm < 0 {
			writeError(c, http.StatusBadRequest, "negative distance")
			return
		}
		distanceKm = *req.DistanceKm
	case req.Pickup != nil && req.Dropoff != nil:
		a := types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
		b := types.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}
		if !geo.ValidPoint(a) || !geo.ValidPoint(b) {
			writeError(c, http.StatusBadRequest, "invalid coordinates")
			return
		}
		distanceKm = geo.DistanceKm(a, b)
	default:
		writeError(c, http.StatusBadRequest, "distance_km or pickup/dropoff required")
		return
	}

	category := pricing.Category(req.Category)
	if category == pricing.CategoryRide {
		fare := h.pricing.RideFare(distanceKm, h.pricing.CurrentSurgeMultiplier())
		writeJSON(c, http.StatusOK, map[string]any{
			"category":    category,
			"distance_km": distanceKm,
			"total":       fare,
		})
		return
	}

	b, err := h.pricing.DeliveryFee(distanceKm, category)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"category":       category,
		"distance_km":    b.DistanceKm,
		"base_fare":      b.BaseFare,
		"extra_fee":      b.ExtraFee,
		"distance_fee":   b.DistanceFee,
		"surge_fee":      b.SurgeFee,
		"subtotal":       b.Subtotal,
		"platform_fee":   b.PlatformFee,
		"delivery_fee":   b.DeliveryFee,
		"total":          b.Total,
		"rider_earnings": b.RiderEarnings,
		"is_surge":       b.IsSurge,
	})
}
