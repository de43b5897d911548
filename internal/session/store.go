// package session holds per-owner search results between the search and the
// user's selection.
//
// The store is process-wide, in-memory state: each owner has at most one
// live session, versioned by a monotonically increasing generation. A new
// search supersedes the old session before Put returns, so a button rendered
// against a stale keyboard can never trigger work against newer results: it
// fails with [shared.ErrSessionExpired] instead.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// Store maps owner ids to their live search session.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*searchSession

	// generations outlives the sessions map: dropping or pruning a session
	// must not let a later Put reuse a generation that old keyboards still
	// reference.
	generations map[int64]uint64

	pageSize int
	maxPages int
	ttl      time.Duration

	now func() time.Time // swapped in tests
}

type searchSession struct {
	generation uint64
	items      []models.CandidateItem
	createdAt  time.Time
}

// New creates a Store. Items beyond pageSize*maxPages are discarded on Put.
func New(pageSize, maxPages int, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[int64]*searchSession),
		generations: make(map[int64]uint64),
		pageSize:    pageSize,
		maxPages:    maxPages,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Put creates a new session for owner, superseding any prior one, and
// returns its generation. The generation sequence per owner is strictly
// increasing across the life of the process.
func (s *Store) Put(owner int64, items []models.CandidateItem) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit := s.pageSize * s.maxPages; len(items) > limit {
		items = items[:limit]
	}

	s.generations[owner]++
	generation := s.generations[owner]

	s.sessions[owner] = &searchSession{
		generation: generation,
		items:      items,
		createdAt:  s.now(),
	}

	return generation
}

// Page returns the items on the requested page. Pagination only moves the
// viewed page; the underlying item list never mutates.
func (s *Store) Page(owner int64, generation uint64, page int) ([]models.CandidateItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.live(owner, generation)
	if err != nil {
		return nil, err
	}

	if page < 0 || page >= s.pages(sess) {
		return nil, fmt.Errorf("%w: page %d out of range", shared.ErrSessionExpired, page)
	}

	start := page * s.pageSize
	end := min(start+s.pageSize, len(sess.items))
	return sess.items[start:end], nil
}

// Select returns the chosen item for acquisition after the same liveness
// check as Page.
func (s *Store) Select(owner int64, generation uint64, index int) (models.CandidateItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.live(owner, generation)
	if err != nil {
		return models.CandidateItem{}, err
	}

	if index < 0 || index >= len(sess.items) {
		return models.CandidateItem{}, fmt.Errorf("%w: selection %d out of range", shared.ErrSessionExpired, index)
	}

	return sess.items[index], nil
}

// Count returns the number of items and pages in the owner's live session.
func (s *Store) Count(owner int64, generation uint64) (items, pages int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.live(owner, generation)
	if err != nil {
		return 0, 0, err
	}

	return len(sess.items), s.pages(sess), nil
}

// Drop discards the owner's session, if any. Used after a successful
// delivery so leftover keyboards expire immediately.
func (s *Store) Drop(owner int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, owner)
}

// Prune removes sessions past their TTL and returns how many were dropped.
// Run it periodically; expired sessions are also rejected lazily on access.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for owner, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, owner)
			dropped++
		}
	}

	return dropped
}

// live validates generation and TTL under the store lock.
func (s *Store) live(owner int64, generation uint64) (*searchSession, error) {
	sess, ok := s.sessions[owner]
	if !ok {
		return nil, fmt.Errorf("%w: no session for owner", shared.ErrSessionExpired)
	}
	if sess.generation != generation {
		return nil, fmt.Errorf("%w: generation %d superseded by %d", shared.ErrSessionExpired, generation, sess.generation)
	}
	if s.expired(sess) {
		delete(s.sessions, owner)
		return nil, fmt.Errorf("%w: session past its TTL", shared.ErrSessionExpired)
	}
	return sess, nil
}

func (s *Store) expired(sess *searchSession) bool {
	return s.ttl > 0 && s.now().Sub(sess.createdAt) > s.ttl
}

func (s *Store) pages(sess *searchSession) int {
	pages := (len(sess.items) + s.pageSize - 1) / s.pageSize
	if pages > s.maxPages {
		pages = s.maxPages
	}
	return pages
}
