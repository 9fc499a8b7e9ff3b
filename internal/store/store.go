// Package store owns the authoritative in-memory collection of writings and
// mediates every read and write against the remote service.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/model"
)

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}

// Remote is the contract the store needs from the writing service. It is
// satisfied by api.Client.
type Remote interface {
	List(ctx context.Context, page int, search string) ([]model.Writing, model.Pagination, error)
	Get(ctx context.Context, id model.WritingID) (model.Writing, error)
	Create(ctx context.Context, in model.WritingInput) (model.Writing, error)
	Update(ctx context.Context, id model.WritingID, in model.WritingInput) (model.Writing, error)
	Autosave(ctx context.Context, id model.WritingID, content string) (*model.Writing, error)
	Delete(ctx context.Context, id model.WritingID) error
}

// Snapshot is a point-in-time copy of the store's observable state.
type Snapshot struct {
	Writings   []model.Writing
	Current    *model.Writing
	Pagination model.Pagination
	Loading    bool
	Err        error
}

// WritingsStore caches loaded writings, the pagination cursor and the one
// currently open writing. Each mutation applies the remote's answer to the
// cache before anyone can observe it, so the cache always reflects the last
// known server truth (which is not guaranteed to be the current one).
//
// Results of concurrent loads are applied in call-completion order,
// last-writer-wins. No ordering is guaranteed between two in-flight loads
// for different queries.
type WritingsStore struct {
	mu sync.RWMutex

	remote Remote

	writings   []model.Writing
	current    *model.Writing
	pagination model.Pagination

	loading bool
	lastErr error

	subscribers map[chan struct{}]bool
}

func NewWritingsStore(remote Remote) *WritingsStore {
	return &WritingsStore{
		remote:      remote,
		writings:    make([]model.Writing, 0),
		pagination:  model.Pagination{CurrentPage: 1, TotalPages: 1},
		subscribers: make(map[chan struct{}]bool),
	}
}

// Subscribe returns a channel that receives a signal after every state
// change. Sends never block; a slow consumer just coalesces notifications.
func (s *WritingsStore) Subscribe() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subscribers[ch] = true
	return ch
}

func (s *WritingsStore) Unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers[ch] {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// notifyLocked must be called with s.mu held.
func (s *WritingsStore) notifyLocked() {
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a copy of the observable state. The slice and the current
// writing are copies; mutating them does not affect the store.
func (s *WritingsStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writings := make([]model.Writing, len(s.writings))
	copy(writings, s.writings)

	var current *model.Writing
	if s.current != nil {
		c := *s.current
		current = &c
	}

	return Snapshot{
		Writings:   writings,
		Current:    current,
		Pagination: s.pagination,
		Loading:    s.loading,
		Err:        s.lastErr,
	}
}

func (s *WritingsStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *WritingsStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	s.notifyLocked()
}

// LoadPage replaces the cached collection and pagination with the server's
// result for the given query. Used whenever the query changes.
func (s *WritingsStore) LoadPage(ctx context.Context, page int, search string) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()

	writings, pagination, err := s.remote.List(ctx, page, search)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		storeLogger.Error().Err(err).Int("page", page).Str("search", search).Msg("Error loading writings")
		return err
	}

	s.writings = writings
	s.pagination = pagination
	s.notifyLocked()
	return nil
}

// LoadMore fetches one further page and appends it to the cache. Callers are
// expected to have checked HasNext first; this is an application-level guard,
// the request is issued regardless. A failure lands in the shared error slot
// as well as the return value.
func (s *WritingsStore) LoadMore(ctx context.Context, page int, search string) error {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	writings, pagination, err := s.remote.List(ctx, page, search)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		storeLogger.Error().Err(err).Int("page", page).Msg("Error loading more writings")
		return err
	}

	s.writings = append(s.writings, writings...)
	s.pagination = pagination
	s.notifyLocked()
	return nil
}

// Get fetches a writing and makes it the currently open one. The list cache
// is not touched.
func (s *WritingsStore) Get(ctx context.Context, id model.WritingID) (model.Writing, error) {
	s.mu.Lock()
	s.loading = true
	s.notifyLocked()
	s.mu.Unlock()

	writing, err := s.remote.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		return model.Writing{}, err
	}

	s.current = &writing
	s.notifyLocked()
	return writing, nil
}

// Create stores a new writing remotely and prepends it to the cache, keeping
// newest-first insertion order.
func (s *WritingsStore) Create(ctx context.Context, in model.WritingInput) (model.Writing, error) {
	s.mu.Lock()
	s.loading = true
	s.notifyLocked()
	s.mu.Unlock()

	writing, err := s.remote.Create(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		return model.Writing{}, err
	}

	s.writings = append([]model.Writing{writing}, s.writings...)
	s.notifyLocked()
	return writing, nil
}

// Update saves the full payload and replaces the matching cache entry in
// place; the entry keeps its position. The currently open writing is replaced
// too when it has the same id.
func (s *WritingsStore) Update(ctx context.Context, id model.WritingID, in model.WritingInput) (model.Writing, error) {
	s.mu.Lock()
	s.loading = true
	s.notifyLocked()
	s.mu.Unlock()

	writing, err := s.remote.Update(ctx, id, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		return model.Writing{}, err
	}

	for i := range s.writings {
		if s.writings[i].ID == id {
			s.writings[i] = writing
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		c := writing
		s.current = &c
	}
	s.notifyLocked()
	return writing, nil
}

// Autosave sends only the content. On success the content is merged into the
// cache entry and the open writing; everything else is left untouched since
// the service may not echo the full object back. On failure the cache stays
// unmodified and the error propagates to the caller.
func (s *WritingsStore) Autosave(ctx context.Context, id model.WritingID, content string) error {
	echo, err := s.remote.Autosave(ctx, id, content)
	if err != nil {
		storeLogger.Debug().Err(err).Str("id", string(id)).Msg("Autosave failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.writings {
		if s.writings[i].ID == id {
			s.writings[i].Content = content
			if echo != nil {
				s.writings[i].ModifiedDate = echo.ModifiedDate
			}
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current.Content = content
		if echo != nil {
			s.current.ModifiedDate = echo.ModifiedDate
		}
	}
	s.notifyLocked()
	return nil
}

// Delete removes the writing remotely and from the cache. If it was the open
// writing, the open slot is cleared.
func (s *WritingsStore) Delete(ctx context.Context, id model.WritingID) error {
	s.mu.Lock()
	s.loading = true
	s.notifyLocked()
	s.mu.Unlock()

	err := s.remote.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		return err
	}

	kept := s.writings[:0]
	for _, w := range s.writings {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.writings = kept

	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.notifyLocked()
	return nil
}

// ClearOpen drops the currently open writing, for when the caller leaves the
// editing context.
func (s *WritingsStore) ClearOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.notifyLocked()
}
