// Package filter applies numeric range and district criteria to parsed
// listings.
package filter

import (
	"math"
	"strings"

	"github.com/jpalmerr/listingwatch/internal/listing"
	"github.com/jpalmerr/listingwatch/internal/parser"
)

// Range is an inclusive interval. A nil bound imposes no constraint.
type Range struct {
	Min *float64
	Max *float64
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Contains reports whether v satisfies every defined bound. A NaN value
// fails as soon as one bound is defined.
func (r Range) Contains(v float64) bool {
	if r.IsZero() {
		return true
	}
	if math.IsNaN(v) {
		return false
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Criteria is the full set of constraints for one monitor.
type Criteria struct {
	Rooms      Range
	Area       Range
	Floor      Range
	M2Price    Range
	TotalPrice Range
	LandArea   Range
	// Districts is a case-insensitive allow-list; empty means any district.
	Districts []string
}

// IsEmpty reports whether the criteria define no constraint at all.
func (c Criteria) IsEmpty() bool {
	return c.Rooms.IsZero() &&
		c.Area.IsZero() &&
		c.Floor.IsZero() &&
		c.M2Price.IsZero() &&
		c.TotalPrice.IsZero() &&
		c.LandArea.IsZero() &&
		len(c.Districts) == 0
}

// Match reports whether l satisfies every defined constraint in c.
func Match(l listing.Listing, c Criteria) bool {
	if len(c.Districts) > 0 && !districtAllowed(l.District, c.Districts) {
		return false
	}

	return c.Rooms.Contains(l.Rooms) &&
		c.Area.Contains(l.Area) &&
		c.Floor.Contains(floorNumber(l.Floor)) &&
		c.M2Price.Contains(l.M2Price) &&
		c.TotalPrice.Contains(l.TotalPrice) &&
		c.LandArea.Contains(l.LandArea)
}

// Apply returns the listings that match c, in their original order.
// Empty criteria return the input unchanged.
func Apply(listings []listing.Listing, c Criteria) []listing.Listing {
	if c.IsEmpty() {
		return listings
	}

	out := make([]listing.Listing, 0, len(listings))
	for _, l := range listings {
		if Match(l, c) {
			out = append(out, l)
		}
	}
	return out
}

func districtAllowed(district string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(district)) {
			return true
		}
	}
	return false
}

// floorNumber reads the current floor from a "current/total" descriptor.
func floorNumber(floor string) float64 {
	if floor == "" {
		return math.NaN()
	}
	current, _, _ := strings.Cut(floor, "/")
	return parser.ParseLeadingInt(current)
}
