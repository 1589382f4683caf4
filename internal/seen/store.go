package seen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/listingwatch/kvstore"
)

// DefaultMaxSeen is the number of links retained per monitor.
const DefaultMaxSeen = 100

// Key returns the storage key of a monitor's seen set.
func Key(monitorID string) string {
	return monitorID + "-seen"
}

// Store reads and writes seen sets in a [kvstore.Store].
type Store struct {
	kv      kvstore.Store
	maxSeen int
	timeout time.Duration
	logger  *slog.Logger
}

// NewStore creates a Store. maxSeen <= 0 selects DefaultMaxSeen; timeout <= 0
// disables the per-call timeout.
func NewStore(kv kvstore.Store, maxSeen int, timeout time.Duration, logger *slog.Logger) *Store {
	if maxSeen <= 0 {
		maxSeen = DefaultMaxSeen
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, maxSeen: maxSeen, timeout: timeout, logger: logger}
}

// MaxSeen returns the retention limit applied by Write.
func (s *Store) MaxSeen() int {
	return s.maxSeen
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Read loads the seen set of a monitor.
//
// Read never fails: a missing key yields an empty set, and any other storage
// or decoding problem is logged and also yields an empty set, so the run
// proceeds and may re-notify old listings. Read does not truncate.
func (s *Store) Read(ctx context.Context, monitorID string) *Set {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := Key(monitorID)
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		s.logger.Info("no seen set stored, starting empty",
			"monitor_id", monitorID,
			"key", key,
		)
		return NewSet()
	}
	if err != nil {
		s.logger.Warn("reading seen set failed, starting empty",
			"monitor_id", monitorID,
			"key", key,
			"error", err,
		)
		return NewSet()
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		s.logger.Warn("seen set is not a JSON array of strings, starting empty",
			"monitor_id", monitorID,
			"key", key,
			"error", err,
		)
		return NewSet()
	}

	return NewSet(links...)
}

// Write truncates set to the newest MaxSeen links and stores it.
// The set passed in is modified by the truncation.
func (s *Store) Write(ctx context.Context, monitorID string, set *Set) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set.Truncate(s.maxSeen)

	links := set.Links()
	if links == nil {
		links = []string{}
	}
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen set: %w", err)
	}

	if err := s.kv.Put(ctx, Key(monitorID), data); err != nil {
		return fmt.Errorf("write seen set for %s: %w", monitorID, err)
	}
	return nil
}
