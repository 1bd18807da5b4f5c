// Package http registers the API surface and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gofer/internal/http/handlers"
	"gofer/internal/http/middleware"
	"gofer/internal/modules/courier"
	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/order"
	"gofer/internal/modules/pricing"
	"gofer/internal/notify"
)

type RouterDeps struct {
	Order    *order.Service
	Courier  *courier.Service
	Pricing  *pricing.Service
	Dispatch *dispatch.Coordinator
	Hub      *notify.Hub
	Log      *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	orderHandler := handlers.NewOrderHandler(deps.Order, deps.Courier, deps.Dispatch)
	r.POST("/api/orders", orderHandler.Create)
	r.GET("/api/orders/:id", orderHandler.Get)
	r.POST("/api/orders/:id/confirm", orderHandler.Confirm)
	r.POST("/api/orders/:id/prepare", orderHandler.Prepare)
	r.POST("/api/orders/:id/ready", orderHandler.Ready)
	r.POST("/api/orders/:id/pickup", orderHandler.PickUp)
	r.POST("/api/orders/:id/deliver", orderHandler.Deliver)
	r.POST("/api/orders/:id/cancel", orderHandler.Cancel)

	dispatchHandler := handlers.NewDispatchHandler(deps.Dispatch, deps.Order)
	r.POST("/api/orders/:id/dispatch", dispatchHandler.Trigger)
	r.GET("/api/orders/:id/dispatch", dispatchHandler.Status)
	r.POST("/api/orders/:id/respond", dispatchHandler.Respond)

	courierHandler := handlers.NewCourierHandler(deps.Courier)
	r.POST("/api/couriers", courierHandler.Register)
	r.GET("/api/couriers/:id", courierHandler.Get)
	r.PUT("/api/couriers/:id/location", courierHandler.UpdateLocation)
	r.POST("/api/couriers/:id/online", courierHandler.SetOnline)
	r.POST("/api/couriers/:id/approve", courierHandler.Approve)
	r.POST("/api/couriers/:id/deactivate", courierHandler.Deactivate)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	r.POST("/api/pricing/quote", pricingHandler.Quote)

	if deps.Hub != nil {
		wsHandler := handlers.NewWSHandler(deps.Hub)
		r.GET("/ws/:user_id", wsHandler.Connect)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
