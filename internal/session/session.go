// Package session keeps the per-user search session state: accumulated
// records, deduplicated sources, and the search lifecycle. Sessions are
// in-memory only; nothing survives a restart.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kaiwsv/rootsrecipes-api/internal/models"
	"github.com/kaiwsv/rootsrecipes-api/internal/sources"
)

// State is the search session lifecycle. A populated session goes back to
// Searching on load-more and returns to Populated on completion; it never
// drops back to Idle.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StatePopulated State = "populated"
	StateEmpty     State = "empty"
)

// ErrSearchInFlight is returned when a dispatch is attempted while the
// session already has a search running. One in-flight search per session.
var ErrSearchInFlight = errors.New("a search is already in progress for this session")

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Session accumulates the results shown to one user. Load-more appends in
// call-completion order; existing entries are never re-sorted or replaced.
type Session struct {
	ID string

	mu         sync.Mutex
	criteria   models.SearchCriteria
	state      State
	searching  bool
	recipes    []models.RecipeRecord
	businesses []models.BusinessRecord
	srcs       []models.Source
	lastSeen   time.Time
}

// Criteria returns a copy of the session's current criteria.
func (s *Session) Criteria() models.SearchCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetCriteria replaces the criteria the next dispatch will use. Sessions are
// shared across requests, so the write happens under the session mutex.
func (s *Session) SetCriteria(criteria models.SearchCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = criteria
	s.lastSeen = time.Now()
}

// Begin marks the session as searching. It fails when a search is already in
// flight; the caller must not dispatch in that case.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.searching {
		return ErrSearchInFlight
	}
	s.searching = true
	s.state = StateSearching
	s.lastSeen = time.Now()
	return nil
}

// End completes the in-flight search and settles the state from what the
// session now holds.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searching = false
	if len(s.recipes) > 0 || len(s.businesses) > 0 {
		s.state = StatePopulated
	} else {
		s.state = StateEmpty
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AppendRecipes merges a bundle onto the session: records append in order,
// sources merge with cross-call dedup. Returns the cumulative lists.
func (s *Session) AppendRecipes(bundle *models.RecipeBundle) ([]models.RecipeRecord, []models.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes = append(s.recipes, bundle.Recipes...)
	s.srcs = sources.Merge(s.srcs, bundle.Sources)
	s.lastSeen = time.Now()
	return append([]models.RecipeRecord(nil), s.recipes...), append([]models.Source(nil), s.srcs...)
}

// AppendBusinesses is AppendRecipes for business mode.
func (s *Session) AppendBusinesses(bundle *models.BusinessBundle) ([]models.BusinessRecord, []models.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.businesses = append(s.businesses, bundle.Businesses...)
	s.srcs = sources.Merge(s.srcs, bundle.Sources)
	s.lastSeen = time.Now()
	return append([]models.BusinessRecord(nil), s.businesses...), append([]models.Source(nil), s.srcs...)
}

// ShownNames returns every record name the session has displayed, in display
// order, for the load-more exclusion list.
func (s *Session) ShownNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.recipes)+len(s.businesses))
	for _, r := range s.recipes {
		names = append(names, r.Name)
	}
	for _, b := range s.businesses {
		names = append(names, b.Name)
	}
	return names
}

// Store holds live sessions and expires abandoned ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates a session store whose janitor expires sessions idle for
// longer than ttl.
func NewStore(ttl time.Duration, cleanupInterval time.Duration) *Store {
	store := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}

	go func() {
		for range time.Tick(cleanupInterval) {
			store.expire()
		}
	}()

	return store
}

// Create registers a new idle session for the given criteria.
func (st *Store) Create(criteria models.SearchCriteria) *Session {
	s := &Session{
		ID:       uuid.New().String(),
		criteria: criteria,
		state:    StateIdle,
		lastSeen: time.Now(),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (st *Store) expire() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff) && !s.searching
		s.mu.Unlock()
		if stale {
			delete(st.sessions, id)
		}
	}
}
