package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gofer/internal/http/handlers"
	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/order"
	"gofer/internal/modules/pricing"
)

func buildTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// Nil stores are safe here: every request in these tests is rejected by
	// validation (or served from config) before any store is touched.
	pricingSvc := pricing.NewService(nil, pricing.DefaultConfig())
	orderSvc := order.NewService(nil, pricingSvc, nil, nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := dispatch.NewCoordinator(dispatch.DefaultConfig(), nil, nil, nil, nil, nil, log)

	r.POST("/api/pricing/quote", handlers.NewPricingHandler(pricingSvc).Quote)
	r.POST("/api/orders", handlers.NewOrderHandler(orderSvc, nil, coord).Create)
	r.POST("/api/orders/:id/respond", handlers.NewDispatchHandler(coord, orderSvc).Respond)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuote_DeliveryBreakdown(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/pricing/quote", map[string]any{
		"category":    "food",
		"distance_km": 5.0,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// food at 5km: base 25 + 3 chargeable km * 10 = 55.
	if got := resp["subtotal"].(float64); got != 55 {
		t.Errorf("subtotal = %v, want 55", got)
	}
	if resp["total"].(float64) < resp["subtotal"].(float64) {
		t.Error("total must not undercut subtotal")
	}
}

func TestQuote_FromCoordinates(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/pricing/quote", map[string]any{
		"category": "parcel_small",
		"pickup":   map[string]float64{"lat": 15.6617, "lng": 104.1403},
		"dropoff":  map[string]float64{"lat": 15.6617, "lng": 104.1403},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Zero distance still charges base + extra.
	if got := resp["subtotal"].(float64); got != 30 {
		t.Errorf("subtotal = %v, want 30", got)
	}
}

func TestQuote_UnknownCategory(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/pricing/quote", map[string]any{
		"category":    "freight",
		"distance_km": 3.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown category, got %d", w.Code)
	}
}

func TestQuote_MissingDistance(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/pricing/quote", map[string]any{
		"category": "food",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without distance or points, got %d", w.Code)
	}
}

func TestCreateOrder_MissingCustomer(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/orders", map[string]any{
		"service_type": "parcel",
		"category":     "parcel_small",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without customer_id, got %d", w.Code)
	}
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	r := buildTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid json, got %d", w.Code)
	}
}

func TestRespond_DeadOfferIsGone(t *testing.T) {
	r := buildTestRouter()
	accepted := true
	w := doRequest(t, r, http.MethodPost, "/api/orders/no-such-order/respond", map[string]any{
		"courier_id": "c1",
		"accepted":   accepted,
	})
	if w.Code != http.StatusGone {
		t.Errorf("expected 410 for dead offer, got %d", w.Code)
	}
}
