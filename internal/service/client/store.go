package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/pkg/logger"
	"github.com/ecosan/sanitrack/internal/sanitization"
)

// Store is the single in-memory source of truth for the currently visible
// client records, kept consistent with the database.
//
// The snapshot holds only active records, newest first. Mutations apply to
// the snapshot only after the database confirms them; a failed operation
// leaves the snapshot exactly as it was. Loads triggered from different
// sources (change feed, hourly ticker, explicit calls) may overlap; a
// monotonic sequence counter discards any load that resolves after a newer
// one has already been applied.
type Store struct {
	repo            Repository
	feed            ChangeFeed
	refreshInterval time.Duration
	clock           func() time.Time

	loadSeq atomic.Uint64

	mu         sync.RWMutex
	records    []domain.Client
	loaded     bool
	lastErr    string
	appliedSeq uint64
}

// StoreOptions tunes a Store. Zero values fall back to defaults.
type StoreOptions struct {
	// RefreshInterval is how often the snapshot is reloaded even without
	// change events, so the time-derived fields keep moving. Default 1h.
	RefreshInterval time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// NewStore creates a store over the given repository and change feed.
// feed may be nil; the store then relies on the periodic refresh alone.
func NewStore(repo Repository, feed ChangeFeed) *Store {
	return NewStoreWithOptions(repo, feed, StoreOptions{})
}

// NewStoreWithOptions creates a store with explicit options.
func NewStoreWithOptions(repo Repository, feed ChangeFeed, opts StoreOptions) *Store {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		repo:            repo,
		feed:            feed,
		refreshInterval: opts.RefreshInterval,
		clock:           opts.Clock,
	}
}

// Load replaces the snapshot with the database's current active records.
// The error is both returned and retained (see Err) so list views can show
// an inline error row. A load that resolves after a newer one has applied
// is discarded without touching the snapshot.
func (s *Store) Load(ctx context.Context) error {
	seq := s.loadSeq.Add(1)

	records, err := s.repo.ListActive(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		// A later-started load already finished; this result is stale.
		return nil
	}
	s.appliedSeq = seq

	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.records = records
	s.loaded = true
	s.lastErr = ""
	return nil
}

// Create validates the input, computes the derived creation-time fields
// (start date = today, initial progress, active flag), persists the record,
// and prepends it to the snapshot once the database confirms it.
func (s *Store) Create(ctx context.Context, input CreateInput) (*domain.Client, error) {
	if input.Name == "" {
		return nil, validationf("name is required")
	}
	if input.Email == "" {
		return nil, validationf("email is required")
	}
	if input.Phone == "" {
		return nil, validationf("phone is required")
	}
	if input.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}
	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.Valid() {
		return nil, validationf("unknown status %q", input.Status)
	}

	now := s.clock()
	start := startOfDay(now)

	c := &domain.Client{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Status:       status,
		StartDate:    start,
		DurationDays: input.DurationDays,
		Progress:     sanitization.ProgressPercent(start, input.DurationDays, now),
		Active:       true,
	}

	created, err := s.repo.Insert(ctx, c)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	s.mu.Lock()
	s.records = append([]domain.Client{*created}, s.records...)
	s.lastErr = ""
	s.mu.Unlock()

	return created, nil
}

// Update applies a partial change and, on success, replaces the matching
// record in place, preserving list order.
func (s *Store) Update(ctx context.Context, id string, u UpdateFields) (*domain.Client, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, validationf("unknown status %q", *u.Status)
	}
	if u.DurationDays != nil && *u.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	updated, err := s.repo.Update(ctx, id, u)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i] = *updated
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	return updated, nil
}

// SoftDelete flips the active flag off and removes the record from the
// snapshot. The visible collection only ever holds active records.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.records[:0]
	for _, c := range s.records {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.records = kept
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// Run owns the store's background work: the change-feed subscription and
// the periodic refresh ticker. It blocks until ctx is cancelled; both the
// subscription and the ticker are released on return.
func (s *Store) Run(ctx context.Context) {
	var events <-chan struct{}
	if s.feed != nil {
		ch, err := s.feed.Subscribe(ctx)
		if err != nil {
			logger.Warn("change feed unavailable, relying on periodic refresh", "error", err)
		} else {
			events = ch
		}
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := s.Load(ctx); err != nil {
				logger.Warn("reload after change event failed", "error", err)
			}
		case <-ticker.C:
			// Progress advances with the wall clock even without edits.
			if err := s.Load(ctx); err != nil {
				logger.Warn("periodic reload failed", "error", err)
			}
		}
	}
}

// Snapshot returns a copy of the current records, newest first.
func (s *Store) Snapshot() []domain.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Client, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the snapshot record with the given id, if present.
func (s *Store) Get(id string) (*domain.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			c := s.records[i]
			return &c, true
		}
	}
	return nil, false
}

// Loaded reports whether the initial load has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Err returns the message of the last failed operation, or "" after any
// success.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Now returns the store's current clock reading.
func (s *Store) Now() time.Time {
	return s.clock()
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

// startOfDay truncates t to midnight UTC, mirroring the date-only start
// dates stored for each process.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
