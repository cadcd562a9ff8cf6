// Package session keeps in-flight donations between the initiate and
// confirm legs of a redirect-based payment flow.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mstgnz/donate/provider"
)

var (
	// ErrNotFound is returned when no donation is stashed for a cookie, or
	// when the presented request token does not match the stashed one.
	ErrNotFound = errors.New("no matching donation in progress")
)

// entry is one stashed donation keyed by the donor's cookie.
type entry struct {
	donation *provider.Donation
	token    string
	stashed  time.Time
}

// Store holds per-donor in-flight donations and the replay-protection
// token that guards the confirm leg. A donor has at most one donation in
// flight; stashing a new one replaces the old.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	seen    map[string]time.Time
	ttl     time.Duration
	stop    chan struct{}
}

// NewStore creates a store whose entries expire after ttl. A background
// sweep removes expired entries; call Close to stop it.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &Store{
		entries: make(map[string]*entry),
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Close stops the background sweep.
func (s *Store) Close() {
	close(s.stop)
}

// NewToken returns a fresh request token. The token deters replay of a
// captured confirm URL; it is not a cryptographic secret.
func NewToken() string {
	return uuid.New().String()
}

// Stash saves a donation and its request token for the donor's cookie. Any
// previous in-flight donation for the same cookie is discarded.
func (s *Store) Stash(cookie, token string, donation *provider.Donation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cookie] = &entry{
		donation: donation,
		token:    token,
		stashed:  time.Now(),
	}
}

// Take looks up the donation stashed for the cookie, verifies the request
// token, and rotates the token so the same confirm URL cannot be replayed.
// The donation stays stashed: a provider callback may legitimately arrive
// more than once, but each arrival needs the token from the previous leg.
func (s *Store) Take(cookie, token string) (*provider.Donation, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[cookie]
	if !ok || token == "" || e.token != token {
		return nil, "", ErrNotFound
	}

	next := uuid.New().String()
	e.token = next
	return e.donation, next, nil
}

// Drop discards the donor's in-flight donation.
func (s *Store) Drop(cookie string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cookie)
}

// Seen reports whether an idempotency token has been recorded. An empty
// token is never considered seen.
func (s *Store) Seen(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[token]
	return ok
}

// MarkSeen records an idempotency token. Tokens are recorded only once the
// donation completed, so a donor can retry a failed attempt with the same
// token.
func (s *Store) MarkSeen(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[token] = time.Now()
}

func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for cookie, e := range s.entries {
				if now.Sub(e.stashed) > s.ttl {
					delete(s.entries, cookie)
				}
			}
			for token, at := range s.seen {
				if now.Sub(at) > s.ttl {
					delete(s.seen, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
