package checkout

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("payment session not found")

// Store keeps open sessions in memory and evicts the ones idle for longer than ttl.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byOrder  map[uint]string
	ttl      time.Duration
	clock    Clock
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore returns a store and starts its janitor; call Close to stop it.
func NewStore(ttl time.Duration, clock Clock) *Store {
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		sessions: make(map[string]*Session),
		byOrder:  make(map[uint]string),
		ttl:      ttl,
		clock:    clock,
		stop:     make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Put registers sess. An earlier session for the same order is cancelled, dropped and
// returned so the caller can settle its charge; otherwise Put returns nil.
func (s *Store) Put(sess *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var replaced *Session
	if prev, ok := s.byOrder[sess.OrderID()]; ok && prev != sess.ID() {
		replaced = s.sessions[prev]
		delete(s.sessions, prev)
	}
	s.sessions[sess.ID()] = sess
	s.byOrder[sess.OrderID()] = sess.ID()
	if replaced != nil {
		replaced.Cancel()
	}
	return replaced
}

// Get returns the session id owned by customerID.
func (s *Store) Get(id string, customerID uint) (*Session, error) {
	s.mu.RLock()
	sess := s.sessions[id]
	s.mu.RUnlock()
	if sess == nil || sess.CustomerID() != customerID || s.expired(sess) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ByReference finds the open session holding reference.
func (s *Store) ByReference(reference string) *Session {
	if reference == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.Reference() == reference {
			return sess
		}
	}
	return nil
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			s.removeLocked(id)
			n++
		}
	}
	return n
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.clock().Sub(sess.LastTouched()) > s.ttl
}

func (s *Store) removeLocked(id string) {
	sess := s.sessions[id]
	if sess == nil {
		return
	}
	delete(s.sessions, id)
	if s.byOrder[sess.OrderID()] == id {
		delete(s.byOrder, sess.OrderID())
	}
}

func (s *Store) cleanup() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
