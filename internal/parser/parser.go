// Package parser extracts listing records from the tabular markup of a
// listing page.
//
// Each table row is parsed independently into an [Outcome]: either a parsed
// [listing.Listing] or a skip with a reason. A bad row never fails the page;
// only an unreadable document is an error.
package parser

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jpalmerr/listingwatch/internal/listing"
)

// DefaultRowSelector matches listing rows on ss.com style pages.
const DefaultRowSelector = `tr[id^="tr_"]`

// noColumn marks a field the layout does not render.
const noColumn = -1

// Layout maps table columns (zero-based <td> indices) to listing fields.
// A negative index means the layout has no such column.
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

// FlatLayout is the column layout used for apartments.
func FlatLayout() Layout {
	return Layout{
		RowSelector: DefaultRowSelector,
		Link:        1,
		Description: 2,
		Address:     3,
		Rooms:       4,
		Area:        5,
		Floor:       6,
		Series:      7,
		M2Price:     8,
		TotalPrice:  9,
		LandArea:    noColumn,
	}
}

// HouseLayout is the column layout used for houses. Houses carry a land area
// column but no per-area price or building series.
func HouseLayout() Layout {
	return Layout{
		RowSelector: DefaultRowSelector,
		Link:        1,
		Description: 2,
		Address:     3,
		Area:        4,
		Floor:       5,
		Rooms:       6,
		LandArea:    7,
		TotalPrice:  8,
		Series:      noColumn,
		M2Price:     noColumn,
	}
}

// LayoutFor returns the default layout for a listing type.
func LayoutFor(t listing.Type) (Layout, error) {
	switch t {
	case listing.TypeFlat:
		return FlatLayout(), nil
	case listing.TypeHouse:
		return HouseLayout(), nil
	default:
		return Layout{}, fmt.Errorf("unknown listing type %q", t)
	}
}

// Options controls how a document is turned into listings.
type Options struct {
	Layout Layout
	// BaseURL is prefixed to relative listing hrefs.
	BaseURL string
	// District is assigned to every parsed listing.
	District string
}

// Skip records why a row was not accepted.
type Skip struct {
	Row    int
	Reason string
}

// Outcome is the result of parsing a single row: exactly one of Listing
// (when OK is true) or Skip is meaningful.
type Outcome struct {
	OK      bool
	Listing listing.Listing
	Skip    Skip
}

func parsed(l listing.Listing) Outcome {
	return Outcome{OK: true, Listing: l}
}

func skipped(row int, reason string) Outcome {
	return Outcome{Skip: Skip{Row: row, Reason: reason}}
}

// Parse extracts all listings from doc. Rows without a link or a numeric
// total price are returned as skips.
func Parse(doc []byte, opts Options) ([]listing.Listing, []Skip, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	selector := opts.Layout.RowSelector
	if selector == "" {
		selector = DefaultRowSelector
	}

	var (
		listings []listing.Listing
		skips    []Skip
	)
	d.Find(selector).Each(func(i int, row *goquery.Selection) {
		out := parseRow(i, row, opts)
		if out.OK {
			listings = append(listings, out.Listing)
			return
		}
		skips = append(skips, out.Skip)
	})

	return listings, skips, nil
}

// parseRow maps one table row to an Outcome.
func parseRow(i int, row *goquery.Selection, opts Options) Outcome {
	cols := row.Find("td")
	layout := opts.Layout

	l := listing.New()
	l.District = opts.District

	anchor := column(cols, layout.Link).Find("a").First()
	if href, ok := anchor.Attr("href"); ok && strings.TrimSpace(href) != "" {
		l.Link = resolveLink(opts.BaseURL, strings.TrimSpace(href))
	}
	if src, ok := anchor.Find("img").Attr("src"); ok {
		l.ImageURL = src
	}

	l.Description = strings.TrimSpace(column(cols, layout.Description).Find("a").Text())
	if l.Description == "" {
		l.Description = text(cols, layout.Description)
	}
	l.Address = text(cols, layout.Address)
	l.Rooms = parseRooms(text(cols, layout.Rooms))
	l.Area = number(cols, layout.Area)
	l.Floor = text(cols, layout.Floor)
	l.Series = text(cols, layout.Series)
	l.M2Price = number(cols, layout.M2Price)
	l.TotalPrice = number(cols, layout.TotalPrice)
	l.LandArea = number(cols, layout.LandArea)

	switch {
	case l.Link == "":
		return skipped(i, "missing link")
	case math.IsNaN(l.TotalPrice):
		return skipped(i, "missing or non-numeric total price")
	}
	return parsed(l)
}

// column returns the idx-th cell, or an empty selection for absent columns.
func column(cols *goquery.Selection, idx int) *goquery.Selection {
	if idx < 0 || idx >= cols.Length() {
		return cols.Slice(0, 0)
	}
	return cols.Eq(idx)
}

func text(cols *goquery.Selection, idx int) string {
	return strings.TrimSpace(column(cols, idx).Text())
}

func number(cols *goquery.Selection, idx int) float64 {
	if idx < 0 {
		return math.NaN()
	}
	return ParseNumber(text(cols, idx))
}

// parseRooms reads the leading room count; tokens such as "Citi" (other)
// have no count and yield NaN.
func parseRooms(s string) float64 {
	return ParseLeadingInt(s)
}

// resolveLink makes href absolute against base. Hrefs that are already
// absolute are kept as-is.
func resolveLink(base, href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
