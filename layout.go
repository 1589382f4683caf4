package listingwatch

import (
	"errors"

	"github.com/jpalmerr/listingwatch/internal/listing"
	"github.com/jpalmerr/listingwatch/internal/parser"
)

// ListingType selects the table layout of a monitored source.
type ListingType string

const (
	// Flat sources list apartments: rooms, area, floor, series, m² price and
	// total price.
	Flat ListingType = "flat"

	// House sources list houses: area, floors, rooms, land area and total
	// price, with no m² price or series column.
	House ListingType = "house"
)

// String implements fmt.Stringer.
func (t ListingType) String() string {
	return string(t)
}

// Valid reports whether t is a supported type.
func (t ListingType) Valid() bool {
	return listing.Type(t).Valid()
}

// NoColumn marks a field that a [Layout] does not render.
const NoColumn = -1

// Layout maps zero-based table cell indices to listing fields.
//
// Use [FlatLayout] or [HouseLayout] as a starting point and override the
// indices that differ. RowSelector is a CSS selector matching listing rows.
type Layout struct {
	RowSelector string
	Link        int
	Description int
	Address     int
	Rooms       int
	Area        int
	Floor       int
	Series      int
	M2Price     int
	TotalPrice  int
	LandArea    int
}

// FlatLayout returns the column layout of apartment listings.
func FlatLayout() Layout {
	return fromParserLayout(parser.FlatLayout())
}

// HouseLayout returns the column layout of house listings.
func HouseLayout() Layout {
	return fromParserLayout(parser.HouseLayout())
}

// DefaultLayout returns the layout for a listing type, or an error for an
// unknown type.
func DefaultLayout(t ListingType) (Layout, error) {
	l, err := parser.LayoutFor(listing.Type(t))
	if err != nil {
		return Layout{}, err
	}
	return fromParserLayout(l), nil
}

func (l Layout) validate() error {
	if l.Link < 0 {
		return errors.New("layout must define a link column")
	}
	if l.TotalPrice < 0 {
		return errors.New("layout must define a total price column")
	}
	return nil
}

func (l Layout) toParser() parser.Layout {
	return parser.Layout{
		RowSelector: l.RowSelector,
		Link:        l.Link,
		Description: l.Description,
		Address:     l.Address,
		Rooms:       l.Rooms,
		Area:        l.Area,
		Floor:       l.Floor,
		Series:      l.Series,
		M2Price:     l.M2Price,
		TotalPrice:  l.TotalPrice,
		LandArea:    l.LandArea,
	}
}

func fromParserLayout(p parser.Layout) Layout {
	return Layout{
		RowSelector: p.RowSelector,
		Link:        p.Link,
		Description: p.Description,
		Address:     p.Address,
		Rooms:       p.Rooms,
		Area:        p.Area,
		Floor:       p.Floor,
		Series:      p.Series,
		M2Price:     p.M2Price,
		TotalPrice:  p.TotalPrice,
		LandArea:    p.LandArea,
	}
}
