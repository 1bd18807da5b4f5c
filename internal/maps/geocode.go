// Package maps wraps the Google Maps client for address resolution.
package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"gofer/internal/types"
)

// ErrNoResults means the address resolved to nothing usable.
var ErrNoResults = errors.New("no geocoding results")

// Geocoder resolves free-form street addresses to coordinates. Results are
// biased to Thailand, where the platform operates.
type Geocoder struct {
	client *maps.Client
	region string
}

func NewGeocoder(apiKey string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Geocoder{client: client, region: "th"}, nil
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	if address == "" {
		return types.Point{}, ErrNoResults
	}
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocode api error: %w", err)
	}
	if len(resp) == 0 {
		return types.Point{}, ErrNoResults
	}
	loc := resp[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
