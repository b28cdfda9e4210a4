package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type flow int

const (
	flowBrowse flow = iota
	flowSearch
	flowDetail
	flowCount
)

func (f flow) String() string {
	switch f {
	case flowBrowse:
		return "browse"
	case flowSearch:
		return "search"
	case flowDetail:
		return "detail"
	}
	return "unknown"
}

// Session holds one browser's view state. Every flow carries a generation;
// a flow's result is committed only while its generation is current.
type Session struct {
	ID string

	mu          sync.Mutex
	state       State
	generations [flowCount]uint64
	cancels     [flowCount]context.CancelFunc
	lastSeen    time.Time
	subscribers map[chan State]struct{}
}

func newSession(id string) *Session {
	return &Session{
		ID:          id,
		state:       initialState(),
		lastSeen:    time.Now(),
		subscribers: make(map[chan State]struct{}),
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// begin starts a new run of f: it bumps the generation, cancels the run it
// supersedes and applies the entering transition. The returned context is
// detached from parent's cancellation and ends only when superseded.
func (s *Session) begin(parent context.Context, f flow, enter func(*State)) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancels[f] != nil {
		s.cancels[f]()
	}
	s.generations[f]++
	s.cancels[f] = cancel
	if enter != nil {
		s.applyLocked(enter)
	}
	return ctx, s.generations[f]
}

// commit applies a flow's result if gen is still the flow's current
// generation. It reports whether the result was kept.
func (s *Session) commit(f flow, gen uint64, apply func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[f] != gen {
		return false
	}
	if s.cancels[f] != nil {
		s.cancels[f]()
		s.cancels[f] = nil
	}
	s.applyLocked(apply)
	return true
}

// abandon invalidates any run of f in flight and applies apply.
func (s *Session) abandon(f flow, apply func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancels[f] != nil {
		s.cancels[f]()
		s.cancels[f] = nil
	}
	s.generations[f]++
	s.applyLocked(apply)
}

func (s *Session) update(apply func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(apply)
	return s.state
}

func (s *Session) applyLocked(apply func(*State)) {
	next := s.state
	apply(&next)
	next.UpdatedAt = time.Now()
	s.state = next
	for ch := range s.subscribers {
		publish(ch, next)
	}
}

// publish replaces any snapshot the subscriber has not read yet.
func publish(ch chan State, snap State) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Subscribe returns a channel that receives the current snapshot and every
// later one. Slow readers only see the latest. Call the returned func to stop.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cancel := range s.cancels {
		if cancel != nil {
			cancel()
			s.cancels[i] = nil
		}
	}
}

// Store keeps sessions in memory, keyed by a random id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Get returns the live session for id, creating a fresh one when id is
// unknown or expired. created reports whether a new id was issued.
func (st *Store) Get(id string) (sess *Session, created bool) {
	now := time.Now()

	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok && sess.idleSince(now) < st.ttl {
		sess.touch(now)
		return sess, false
	}

	sess = newSession(uuid.NewString())
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess, true
}

// Lookup returns an existing session without creating one.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Prune drops sessions idle for longer than the TTL.
func (st *Store) Prune(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince(now) >= st.ttl {
			sess.close()
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
