package seen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/jpalmerr/listingwatch/kvstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingKV fails every call with err.
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Put(context.Context, string, []byte) error   { return f.err }

func TestSet_AddKeepsOrderAndIgnoresDuplicates(t *testing.T) {
	s := NewSet("a", "b", "a")
	s.Add("c")
	s.Add("b")

	if got, want := s.Links(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Links() = %v, want %v", got, want)
	}
	if !s.Contains("b") || s.Contains("z") {
		t.Error("Contains() mismatch")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestSet_ZeroValue(t *testing.T) {
	var s Set
	if s.Contains("a") {
		t.Error("zero Set should be empty")
	}
	s.Add("a")
	if !s.Contains("a") {
		t.Error("zero Set should accept Add")
	}

	var nilSet *Set
	if nilSet.Len() != 0 || nilSet.Contains("a") || nilSet.Links() != nil {
		t.Error("nil *Set should behave as empty")
	}
}

func TestSet_TruncateKeepsNewest(t *testing.T) {
	s := NewSet()
	for i := 0; i < 150; i++ {
		s.Add(fmt.Sprintf("link-%d", i))
	}
	s.Truncate(100)

	if s.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", s.Len())
	}
	links := s.Links()
	if links[0] != "link-50" || links[99] != "link-149" {
		t.Errorf("kept %s..%s, want link-50..link-149", links[0], links[99])
	}
	if s.Contains("link-0") {
		t.Error("truncated link still reported as contained")
	}

	s.Truncate(0)
	if s.Len() != 100 {
		t.Error("Truncate(0) should be a no-op")
	}
}

func TestStore_ReadMissingIsEmpty(t *testing.T) {
	st := NewStore(kvstore.NewMemory(), 0, 0, discardLogger())
	if got := st.Read(context.Background(), "m1"); got.Len() != 0 {
		t.Errorf("Read() on empty store = %v, want empty", got.Links())
	}
}

func TestStore_ReadFailuresDegradeToEmpty(t *testing.T) {
	st := NewStore(failingKV{err: errors.New("boom")}, 0, 0, discardLogger())
	if got := st.Read(context.Background(), "m1"); got.Len() != 0 {
		t.Errorf("Read() with failing backend = %v, want empty", got.Links())
	}

	kv := kvstore.NewMemory()
	_ = kv.Put(context.Background(), Key("m1"), []byte(`{"not":"an array"}`))
	st = NewStore(kv, 0, 0, discardLogger())
	if got := st.Read(context.Background(), "m1"); got.Len() != 0 {
		t.Errorf("Read() with malformed JSON = %v, want empty", got.Links())
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	kv := kvstore.NewMemory()
	st := NewStore(kv, 3, 0, discardLogger())
	ctx := context.Background()

	if err := st.Write(ctx, "m1", NewSet("a", "b", "c", "d", "e")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := kv.Get(ctx, "m1-seen")
	if err != nil {
		t.Fatalf("expected key m1-seen: %v", err)
	}
	want := "[\n  \"c\",\n  \"d\",\n  \"e\"\n]"
	if string(raw) != want {
		t.Errorf("stored = %q, want %q", raw, want)
	}

	got := st.Read(ctx, "m1")
	if !reflect.DeepEqual(got.Links(), []string{"c", "d", "e"}) {
		t.Errorf("Read() = %v, want [c d e]", got.Links())
	}
}

func TestStore_ReadDoesNotTruncate(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Put(context.Background(), "m1-seen", []byte(`["a","b","c","d"]`))

	st := NewStore(kv, 2, 0, discardLogger())
	if got := st.Read(context.Background(), "m1"); got.Len() != 4 {
		t.Errorf("Read() Len = %d, want 4", got.Len())
	}
}

func TestStore_WriteEmptySetIsArray(t *testing.T) {
	kv := kvstore.NewMemory()
	st := NewStore(kv, 0, 0, discardLogger())
	if err := st.Write(context.Background(), "m1", NewSet()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, _ := kv.Get(context.Background(), "m1-seen")
	if string(raw) != "[]" {
		t.Errorf("stored = %q, want []", raw)
	}
}

func TestStore_WriteErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	st := NewStore(failingKV{err: boom}, 0, 0, discardLogger())

	err := st.Write(context.Background(), "m1", NewSet("a"))
	if !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want wrapped boom", err)
	}
}

func TestNewStore_Defaults(t *testing.T) {
	st := NewStore(kvstore.NewMemory(), -1, 0, nil)
	if st.MaxSeen() != DefaultMaxSeen {
		t.Errorf("MaxSeen() = %d, want %d", st.MaxSeen(), DefaultMaxSeen)
	}
}
