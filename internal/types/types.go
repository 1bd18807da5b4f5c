// Package types holds small value objects shared across modules.
package types

// ID identifies an entity (courier, order, customer, merchant).
type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
