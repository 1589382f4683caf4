package listingwatch

import (
	"fmt"

	"github.com/jpalmerr/listingwatch/internal/filter"
)

// Range is an inclusive numeric interval. A nil bound means no constraint on
// that side. Zero is a real bound: AtMost(0) rejects every positive value.
type Range struct {
	Min *float64
	Max *float64
}

// AtLeast returns a range with only a lower bound.
func AtLeast(min float64) Range {
	return Range{Min: &min}
}

// AtMost returns a range with only an upper bound.
func AtMost(max float64) Range {
	return Range{Max: &max}
}

// Between returns a range bounded on both sides.
func Between(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// IsZero reports whether the range has no bounds.
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

func (r Range) validate(name string) error {
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%s: min %v is greater than max %v", name, *r.Min, *r.Max)
	}
	return nil
}

func (r Range) toFilter() filter.Range {
	return filter.Range{Min: copyFloat(r.Min), Max: copyFloat(r.Max)}
}

// Criteria selects which listings a monitor reports.
//
// Every defined bound must hold. A listing whose measurement could not be
// parsed fails any bound defined on that measurement. The zero value
// accepts every listing.
type Criteria struct {
	Rooms      Range
	Area       Range
	Floor      Range
	M2Price    Range
	TotalPrice Range
	// LandArea only applies to houses; flats never carry a land area.
	LandArea Range

	// Districts is a case-insensitive allow-list. Empty accepts any district.
	Districts []string
}

// IsEmpty reports whether the criteria accept every listing.
func (c Criteria) IsEmpty() bool {
	return c.toFilter().IsEmpty()
}

// Validate checks that no range has min greater than max.
func (c Criteria) Validate() error {
	checks := []struct {
		name string
		r    Range
	}{
		{"rooms", c.Rooms},
		{"area", c.Area},
		{"floor", c.Floor},
		{"m2 price", c.M2Price},
		{"total price", c.TotalPrice},
		{"land area", c.LandArea},
	}
	for _, chk := range checks {
		if err := chk.r.validate(chk.name); err != nil {
			return err
		}
	}
	return nil
}

// toFilter converts the public criteria to the internal filter form.
func (c Criteria) toFilter() filter.Criteria {
	return filter.Criteria{
		Rooms:      c.Rooms.toFilter(),
		Area:       c.Area.toFilter(),
		Floor:      c.Floor.toFilter(),
		M2Price:    c.M2Price.toFilter(),
		TotalPrice: c.TotalPrice.toFilter(),
		LandArea:   c.LandArea.toFilter(),
		Districts:  copyStrings(c.Districts),
	}
}

func (c Criteria) clone() Criteria {
	cp := c
	cp.Rooms = Range{copyFloat(c.Rooms.Min), copyFloat(c.Rooms.Max)}
	cp.Area = Range{copyFloat(c.Area.Min), copyFloat(c.Area.Max)}
	cp.Floor = Range{copyFloat(c.Floor.Min), copyFloat(c.Floor.Max)}
	cp.M2Price = Range{copyFloat(c.M2Price.Min), copyFloat(c.M2Price.Max)}
	cp.TotalPrice = Range{copyFloat(c.TotalPrice.Min), copyFloat(c.TotalPrice.Max)}
	cp.LandArea = Range{copyFloat(c.LandArea.Min), copyFloat(c.LandArea.Max)}
	cp.Districts = copyStrings(c.Districts)
	return cp
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
