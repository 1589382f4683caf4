// Package listing defines the record extracted from one row of a listing
// table. Listings are ephemeral: they live for a single monitor run and only
// their Link is ever persisted.
package listing

import "math"

// Type selects the table layout a source renders.
type Type string

const (
	TypeFlat  Type = "flat"
	TypeHouse Type = "house"
)

// Valid reports whether t is a known listing type.
func (t Type) Valid() bool {
	return t == TypeFlat || t == TypeHouse
}

// Listing is one posting parsed from a source document.
//
// Numeric fields that could not be parsed hold NaN rather than zero so that
// criteria can tell "missing" apart from a real zero.
type Listing struct {
	// Link is the absolute listing URL and the identity key for dedup.
	Link        string
	ImageURL    string
	Description string
	Address     string
	District    string
	Rooms       float64
	Area        float64
	// Floor is the raw "current/total" descriptor, e.g. "5/7".
	Floor      string
	M2Price    float64
	TotalPrice float64
	Series     string
	// LandArea is only populated for houses.
	LandArea float64
}

// New returns a Listing with every numeric field set to NaN.
func New() Listing {
	nan := math.NaN()
	return Listing{
		Rooms:      nan,
		Area:       nan,
		M2Price:    nan,
		TotalPrice: nan,
		LandArea:   nan,
	}
}

// Known reports whether v holds a parsed measurement.
func Known(v float64) bool {
	return !math.IsNaN(v)
}
