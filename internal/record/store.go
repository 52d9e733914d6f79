package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daap14/roster/internal/api/validation"
	"github.com/daap14/roster/internal/kv"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// ErrCorruptState is returned by Load when the stored value cannot be
// decoded into a record list.
var ErrCorruptState = errors.New("stored record list is corrupt")

// Store is the in-memory record list mirrored to a single storage key.
// Every mutation rewrites the whole list under that key.
type Store struct {
	mu      sync.RWMutex
	records []Record
	lastID  int64

	storage kv.Storage
	key     string
	now     func() time.Time
	logger  *slog.Logger

	// dirty is set while storage holds an older list than memory.
	dirty           atomic.Bool
	persistFailures atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used to mint record ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty Store that mirrors its list to key in storage.
// Call Load to rehydrate previously stored records.
func NewStore(storage kv.Storage, key string, opts ...Option) *Store {
	s := &Store{
		records: []Record{},
		storage: storage,
		key:     key,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the one stored under the store's
// key. A missing key yields an empty list.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		return fmt.Errorf("reading %q from storage: %w", s.key, err)
	}

	records := []Record{}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		if records == nil {
			records = []Record{}
		}
	}

	var lastID int64
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrCorruptState, r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.ID > lastID {
			lastID = r.ID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.lastID = lastID
	return nil
}

// List returns a copy of all records in insertion order.
func (s *Store) List(_ context.Context) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(_ context.Context, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], nil
	}
	return Record{}, ErrNotFound
}

// Create appends a new record with a fresh id.
func (s *Store) Create(ctx context.Context, f Fields) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Record{ID: s.nextID(), Name: f.Name, Email: f.Email, Role: f.Role}
	s.records = append(s.records, r)
	s.persist(ctx)
	return r, nil
}

// Update replaces the fields of the record with the given id. The id and the
// record's position are kept.
func (s *Store) Update(ctx context.Context, id int64, f Fields) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	r := Record{ID: id, Name: f.Name, Email: f.Email, Role: f.Role}
	s.records[i] = r
	s.persist(ctx)
	return r, nil
}

// Patch rewrites the fields of the record with the given id using fn. The
// current fields are read and replaced under one lock, so concurrent patches
// to different fields do not undo each other. An error from fn leaves the
// record untouched and is returned as is.
func (s *Store) Patch(ctx context.Context, id int64, fn func(Fields) (Fields, error)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	f, err := fn(s.records[i].Fields())
	if err != nil {
		return Record{}, err
	}
	r := Record{ID: id, Name: f.Name, Email: f.Email, Role: f.Role}
	s.records[i] = r
	s.persist(ctx)
	return r, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.persist(ctx)
	return nil
}

// Seed creates one record per valid entry when the store is empty and
// returns how many were created. Entries the record form would reject are
// logged and skipped.
func (s *Store) Seed(ctx context.Context, seeds []Fields) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) > 0 {
		return 0, nil
	}
	created := 0
	for i, f := range seeds {
		errs := validation.ValidateRecordForm(validation.RecordForm{Name: f.Name, Email: f.Email, Role: f.Role})
		if len(errs) > 0 {
			s.logger.Warn("skipping invalid seed entry", "index", i, "errors", errs.Map())
			continue
		}
		s.records = append(s.records, Record{ID: s.nextID(), Name: f.Name, Email: f.Email, Role: f.Role})
		created++
	}
	if created > 0 {
		s.persist(ctx)
	}
	return created, nil
}

// PersistFailures returns how many storage writes have failed since start.
func (s *Store) PersistFailures() int64 {
	return s.persistFailures.Load()
}

// Dirty reports whether the last write to storage failed, leaving storage
// behind the in-memory list.
func (s *Store) Dirty() bool {
	return s.dirty.Load()
}

// Flush rewrites the whole list to storage. Unlike mutations it returns the
// write error so callers can retry.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.write(ctx)
}

// Ping reports whether the backing storage is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID must be called with s.mu held. Ids never go backwards even if the
// clock does, and two creates in the same millisecond get distinct ids.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist must be called with s.mu held. A failed write leaves the in-memory
// list as is and marks the store dirty until a later write succeeds.
func (s *Store) persist(ctx context.Context) {
	if err := s.write(ctx); err != nil {
		s.persistFailures.Add(1)
		s.logger.Warn("failed to persist record list", "error", err, "key", s.key, "records", len(s.records))
	}
}

// write must be called with s.mu held (read or write).
func (s *Store) write(ctx context.Context) error {
	data, err := json.Marshal(s.records)
	if err != nil {
		s.dirty.Store(true)
		return fmt.Errorf("encoding record list: %w", err)
	}
	if err := s.storage.SetItem(context.WithoutCancel(ctx), s.key, string(data)); err != nil {
		s.dirty.Store(true)
		return fmt.Errorf("writing %q to storage: %w", s.key, err)
	}
	s.dirty.Store(false)
	return nil
}
