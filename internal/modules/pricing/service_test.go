package pricing

import (
	"errors"
	"math"
	"testing"
	"time"
)

// 09:00 and 12:00 Bangkok time on an arbitrary weekday, expressed in UTC.
var (
	offPeak = time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)  // 09:00 ICT
	midday  = time.Date(2026, 3, 3, 5, 0, 0, 0, time.UTC)  // 12:00 ICT
	evening = time.Date(2026, 3, 3, 11, 30, 0, 0, time.UTC) // 18:30 ICT
)

func TestIsSurgePeriod(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"09:00 ICT off-peak", offPeak, false},
		{"12:00 ICT lunch peak", midday, true},
		{"18:30 ICT evening peak", evening, true},
		{"13:00 ICT window end exclusive", time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC), false},
		{"11:00 ICT window start inclusive", time.Date(2026, 3, 3, 4, 0, 0, 0, time.UTC), true},
		{"20:00 ICT evening window closed", time.Date(2026, 3, 3, 13, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSurgePeriod(cfg, tt.at); got != tt.want {
				t.Errorf("IsSurgePeriod(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestDeliveryFee_FoodFiveKmOffPeak(t *testing.T) {
	b, err := DeliveryFee(5, CategoryFood, DefaultConfig(), offPeak)
	if err != nil {
		t.Fatalf("DeliveryFee: %v", err)
	}
	// base 25 + (5-2)*10 = 55 subtotal, no surge, platform 55*0.04 = 2.2,
	// total = ceil(57.2) = 58.
	if b.Subtotal != 55 {
		t.Errorf("subtotal = %v, want 55", b.Subtotal)
	}
	if b.IsSurge {
		t.Error("expected no surge at 09:00 ICT")
	}
	if math.Abs(b.PlatformFee-2.2) > 1e-9 {
		t.Errorf("platform fee = %v, want 2.2", b.PlatformFee)
	}
	if b.Total != 58 {
		t.Errorf("total = %v, want 58", b.Total)
	}
	if b.DeliveryFee != 55 {
		t.Errorf("delivery fee = %v, want 55", b.DeliveryFee)
	}
}

func TestDeliveryFee_SurgeMultiplier(t *testing.T) {
	b, err := DeliveryFee(5, CategoryFood, DefaultConfig(), midday)
	if err != nil {
		t.Fatalf("DeliveryFee: %v", err)
	}
	if !b.IsSurge {
		t.Fatal("expected surge at 12:00 ICT")
	}
	// subtotal 55, surge fee 55*0.3 = 16.5, fee 71.5.
	if math.Abs(b.SurgeFee-16.5) > 1e-9 {
		t.Errorf("surge fee = %v, want 16.5", b.SurgeFee)
	}
	if b.DeliveryFee != 72 {
		t.Errorf("delivery fee = %v, want ceil(71.5) = 72", b.DeliveryFee)
	}
}

func TestDeliveryFee_ShortDistanceDegradesToBase(t *testing.T) {
	cfg := DefaultConfig()
	for _, km := range []float64{0, 0.5, 2} {
		b, err := DeliveryFee(km, CategoryParcelLarge, cfg, offPeak)
		if err != nil {
			t.Fatalf("DeliveryFee(%v): %v", km, err)
		}
		if b.DistanceFee != 0 {
			t.Errorf("distance fee at %vkm = %v, want 0", km, b.DistanceFee)
		}
		if b.Subtotal != 80 { // parcel_large base 30 + extra 50
			t.Errorf("subtotal at %vkm = %v, want 80", km, b.Subtotal)
		}
	}
}

func TestDeliveryFee_UnknownCategory(t *testing.T) {
	_, err := DeliveryFee(5, Category("drone"), DefaultConfig(), offPeak)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestDeliveryFee_TotalNeverBelowSubtotal(t *testing.T) {
	cfg := DefaultConfig()
	for _, km := range []float64{0, 1, 2, 2.5, 5, 12.3, 40} {
		for cat, fare := range cfg.Fares {
			for _, at := range []time.Time{offPeak, midday} {
				b, err := DeliveryFee(km, cat, cfg, at)
				if err != nil {
					t.Fatalf("DeliveryFee(%v, %s): %v", km, cat, err)
				}
				if b.Total < b.Subtotal {
					t.Errorf("%s %vkm: total %v < subtotal %v", cat, km, b.Total, b.Subtotal)
				}
				if b.DeliveryFee < fare.Base+fare.ExtraFee {
					t.Errorf("%s %vkm: fee %v below base+extra", cat, km, b.DeliveryFee)
				}
			}
		}
	}
}

// The three settlement components must reconstruct the delivery fee to
// within one rounding unit per component.
func TestDeliveryFee_SplitInvariant(t *testing.T) {
	cfg := DefaultConfig()
	for _, km := range []float64{0, 1.7, 3.33, 5, 9.99, 25} {
		for _, at := range []time.Time{offPeak, midday} {
			b, err := DeliveryFee(km, CategoryFood, cfg, at)
			if err != nil {
				t.Fatalf("DeliveryFee: %v", err)
			}
			preCeiling := b.Subtotal + b.SurgeFee
			sum := b.RiderEarnings + b.PlatformEarnings + b.CommunityFund
			if math.Abs(sum-preCeiling) > 0.02 {
				t.Errorf("km=%v at=%v: split sum %v differs from fee %v", km, at, sum, preCeiling)
			}
		}
	}
}

// With SplitRoundedFee the denominator is the charged (ceiling) fee instead.
func TestDeliveryFee_SplitRoundedFee(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitRoundedFee = true
	b, err := DeliveryFee(5, CategoryFood, cfg, midday)
	if err != nil {
		t.Fatalf("DeliveryFee: %v", err)
	}
	// fee 71.5 -> charged 72; split of 72: rider 50.4, community 0.72,
	// platform 20.88.
	if math.Abs(b.RiderEarnings-50.4) > 1e-9 {
		t.Errorf("rider earnings = %v, want 50.4", b.RiderEarnings)
	}
	if math.Abs(b.CommunityFund-0.72) > 1e-9 {
		t.Errorf("community fund = %v, want 0.72", b.CommunityFund)
	}
	sum := b.RiderEarnings + b.PlatformEarnings + b.CommunityFund
	if math.Abs(sum-b.DeliveryFee) > 0.02 {
		t.Errorf("split sum %v differs from charged fee %v", sum, b.DeliveryFee)
	}
}

func TestRideFare(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name       string
		distanceKm float64
		surge      float64
		want       float64
	}{
		{"below free threshold", 1.5, 1.0, 25},
		{"five km flat", 5, 1.0, 55},   // 25 + 3*10
		{"five km surge", 5, 1.3, 72},  // ceil(55 * 1.3) = ceil(71.5)
		{"zero distance", 0, 1.0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RideFare(tt.distanceKm, tt.surge, cfg); got != tt.want {
				t.Errorf("RideFare(%v, %v) = %v, want %v", tt.distanceKm, tt.surge, got, tt.want)
			}
		})
	}
}

func TestCommission(t *testing.T) {
	if got := Commission(200, 15); got != 30 {
		t.Errorf("Commission(200, 15) = %v, want 30", got)
	}
	if got := Commission(99.99, 10); math.Abs(got-10) > 1e-9 {
		t.Errorf("Commission(99.99, 10) = %v, want 10", got)
	}
}

func TestService_UsesInjectedClock(t *testing.T) {
	s := NewService(nil, DefaultConfig())
	s.now = func() time.Time { return midday }
	b, err := s.DeliveryFee(5, CategoryFood)
	if err != nil {
		t.Fatalf("DeliveryFee: %v", err)
	}
	if !b.IsSurge {
		t.Error("expected surge with midday clock")
	}
	if got := s.CurrentSurgeMultiplier(); got != 1.3 {
		t.Errorf("surge multiplier = %v, want 1.3", got)
	}

	s.now = func() time.Time { return offPeak }
	if got := s.CurrentSurgeMultiplier(); got != 1 {
		t.Errorf("off-peak multiplier = %v, want 1", got)
	}
}
