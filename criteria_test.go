package listingwatch

import (
	"math"
	"testing"
)

func TestRangeHelpers(t *testing.T) {
	if r := AtLeast(2); r.Min == nil || *r.Min != 2 || r.Max != nil {
		t.Errorf("AtLeast(2) = %+v", r)
	}
	if r := AtMost(0); r.Max == nil || *r.Max != 0 || r.Min != nil {
		t.Errorf("AtMost(0) = %+v", r)
	}
	if r := Between(1, 3); *r.Min != 1 || *r.Max != 3 {
		t.Errorf("Between(1, 3) = %+v", r)
	}
	if !(Range{}).IsZero() || AtLeast(0).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestCriteria_IsEmpty(t *testing.T) {
	if !(Criteria{}).IsEmpty() {
		t.Error("zero Criteria should be empty")
	}
	if (Criteria{LandArea: AtLeast(500)}).IsEmpty() {
		t.Error("land area bound should make criteria non-empty")
	}
	if (Criteria{Districts: []string{"Centrs"}}).IsEmpty() {
		t.Error("district list should make criteria non-empty")
	}
}

func TestCriteria_Validate(t *testing.T) {
	ok := Criteria{Rooms: Between(2, 2), M2Price: AtMost(3000)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := Criteria{LandArea: Between(1000, 10)}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() expected error for inverted land area")
	}
}

func TestCriteria_ToFilterZeroIsRealBound(t *testing.T) {
	f := Criteria{Floor: AtMost(0)}.toFilter()
	if f.Floor.Contains(1) {
		t.Error("AtMost(0) accepted floor 1")
	}
	if !f.Floor.Contains(0) {
		t.Error("AtMost(0) rejected floor 0")
	}
	if f.Floor.Contains(math.NaN()) {
		t.Error("defined bound accepted a missing value")
	}
}
