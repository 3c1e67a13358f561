package gate

import (
	"field-verify/internal/models"
	"field-verify/internal/proximity"
	"log/slog"
	"sync"
	"time"
)

type sessionKey struct {
	session string
	farm    string
}

type entry struct {
	gate     *Gate
	lastUsed time.Time
}

// Sessions keeps one gate per (official session, farm) pair. Gates not
// touched for idleTTL are closed and dropped; a zero idleTTL keeps them
// until they are discarded.
type Sessions struct {
	policy  proximity.Policy
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	gates map[sessionKey]*entry
}

func NewSessions(policy proximity.Policy, idleTTL time.Duration) *Sessions {
	return &Sessions{
		policy:  policy,
		idleTTL: idleTTL,
		now:     time.Now,
		gates:   make(map[sessionKey]*entry),
	}
}

func (s *Sessions) expired(e *entry, now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(e.lastUsed) > s.idleTTL
}

// sweep removes idle gates. Callers hold s.mu and close the returned gates
// after unlocking.
func (s *Sessions) sweep(now time.Time) []*Gate {
	var idle []*Gate
	for k, e := range s.gates {
		if s.expired(e, now) {
			idle = append(idle, e.gate)
			delete(s.gates, k)
		}
	}
	return idle
}

func closeAll(gates []*Gate) {
	for _, g := range gates {
		g.Close()
	}
	if len(gates) > 0 {
		slog.Info("Evicted idle verification gates", "count", len(gates))
	}
}

// Open returns the session's live gate for farm, creating one if needed.
func (s *Sessions) Open(sessionID string, farm models.Farm) *Gate {
	s.mu.Lock()
	now := s.now()
	idle := s.sweep(now)

	k := sessionKey{sessionID, farm.ID}
	e, ok := s.gates[k]
	if !ok {
		e = &entry{gate: New(farm, s.policy)}
		s.gates[k] = e
	}
	e.lastUsed = now
	s.mu.Unlock()

	closeAll(idle)
	return e.gate
}

func (s *Sessions) Lookup(sessionID, farmID string) (*Gate, bool) {
	s.mu.Lock()
	k := sessionKey{sessionID, farmID}
	now := s.now()
	e, ok := s.gates[k]
	if ok && s.expired(e, now) {
		delete(s.gates, k)
		s.mu.Unlock()
		closeAll([]*Gate{e.gate})
		return nil, false
	}
	if ok {
		e.lastUsed = now
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}
	return e.gate, true
}

// Discard closes and forgets one gate. It reports whether one existed.
func (s *Sessions) Discard(sessionID, farmID string) bool {
	s.mu.Lock()
	k := sessionKey{sessionID, farmID}
	e, ok := s.gates[k]
	delete(s.gates, k)
	s.mu.Unlock()

	if ok {
		e.gate.Close()
	}
	return ok
}

// DiscardSession closes every gate owned by a session.
func (s *Sessions) DiscardSession(sessionID string) int {
	s.mu.Lock()
	var closing []*Gate
	for k, e := range s.gates {
		if k.session == sessionID {
			closing = append(closing, e.gate)
			delete(s.gates, k)
		}
	}
	s.mu.Unlock()

	for _, g := range closing {
		g.Close()
	}
	return len(closing)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gates)
}
