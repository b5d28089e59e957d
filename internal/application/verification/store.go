package verification

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 300 * time.Second

const (
	minCode = 1000
	maxCode = 9999
)

// ErrStoreClosed is returned by Issue once the store has been closed.
var ErrStoreClosed = errors.New("verification store closed")

// Code is a 4-digit registration code.
type Code int

type entry struct {
	code  Code
	gen   uint64
	timer *time.Timer
}

// Store holds at most one pending code per email. Each issuance arms its own
// expiry timer tagged with a generation number, so an expiry can only remove
// the code it was scheduled for.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
	ttl     time.Duration
	closed  bool

	generate func() (Code, error)
}

// NewStore returns an empty store whose codes expire after ttl.
// A non-positive ttl selects DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		generate: randomCode,
	}
}

// TTL reports the lifetime of an issued code.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue generates a code for email, replacing any pending one, and schedules its expiry.
func (s *Store) Issue(email string) (Code, error) {
	key := normalizeEmail(email)
	code, err := s.generate()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.entries[key] = &entry{
		code:  code,
		gen:   gen,
		timer: time.AfterFunc(s.ttl, func() { s.expire(key, gen) }),
	}
	return code, nil
}

// Verify reports whether code matches the pending code for email. A match
// consumes the code; a mismatch leaves it pending so the user can retry.
func (s *Store) Verify(email string, code Code) bool {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.code != code {
		return false
	}
	e.timer.Stop()
	delete(s.entries, key)
	return true
}

// Discard drops the pending code for email, if any, and cancels its expiry.
func (s *Store) Discard(email string) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.timer.Stop()
		delete(s.entries, key)
	}
}

// Lookup returns the pending code for email without consuming it.
func (s *Store) Lookup(email string) (Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[normalizeEmail(email)]
	if !ok {
		return 0, false
	}
	return e.code, true
}

// Len returns the number of pending codes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops every outstanding expiry timer and drops all pending codes.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
	s.closed = true
}

// expire removes the entry for key only if it still belongs to generation gen.
func (s *Store) expire(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.gen != gen {
		return false
	}
	delete(s.entries, key)
	slog.Info("verification code expired", "email", key)
	return true
}

func randomCode() (Code, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return 0, err
	}
	return Code(n.Int64() + minCode), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
