package conversation

import (
	"sync"
	"time"
)

// Store holds live sessions in memory, keyed by session id. Sessions are not
// persisted: a full page reload that lost its id simply starts a new session.
// Idle sessions are swept out after a TTL.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	welcome    string
	ttl        time.Duration
	evictHooks []func(id string)
}

func NewStore(welcome string, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		welcome:  welcome,
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for the given client-supplied id, creating
// a fresh one when the id is empty or unknown. The id is opaque: it is stored
// as-is, never parsed or rewritten.
func (st *Store) GetOrCreate(id, language string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id != "" {
		if s, ok := st.sessions[id]; ok {
			s.touch()
			if language != "" {
				s.SetLanguage(language)
			}
			return s
		}
	}

	s := newSession(language, st.welcome)
	if id != "" {
		s.id = id
	}
	st.sessions[s.ID()] = s
	return s
}

// Get returns an existing session.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.touch()
	}
	return s, ok
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// OnEvict registers fn to run whenever the sweeper evicts a session, so
// per-session state held elsewhere is released along with it.
func (st *Store) OnEvict(fn func(id string)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictHooks = append(st.evictHooks, fn)
}

// StartSweeper evicts idle sessions periodically until stop is closed.
func (st *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.sweep(time.Now())
			case <-stop:
				return
			}
		}
	}()
}

func (st *Store) sweep(now time.Time) {
	st.mu.Lock()
	var evicted []string
	for id, s := range st.sessions {
		if s.idleSince(now) > st.ttl {
			s.Close()
			delete(st.sessions, id)
			evicted = append(evicted, id)
		}
	}
	hooks := st.evictHooks
	st.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
}
