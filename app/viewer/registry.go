package viewer

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const DefaultMaxSessions = 256

// Registry holds the live sessions of the HTTP front end. When full, the
// least recently used session makes room for a new one.
type Registry struct {
	fetcher     DocumentFetcher
	parser      ChannelParser
	maxSessions int

	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewRegistry(fetcher DocumentFetcher, parser ChannelParser, maxSessions int) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Registry{
		fetcher:     fetcher,
		parser:      parser,
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
	}
}

func (r *Registry) Create() *Session {
	session := NewSession(uuid.NewString(), r.fetcher, r.parser)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.maxSessions {
		r.evictOldest()
	}
	r.sessions[session.ID] = session

	slog.Debug("Session created", "session", session.ID, "sessions", len(r.sessions))
	return session
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (r *Registry) evictOldest() {
	var oldest *Session
	for _, s := range r.sessions {
		if oldest == nil || s.LastUsed().Before(oldest.LastUsed()) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(r.sessions, oldest.ID)
		slog.Debug("Session evicted", "session", oldest.ID)
	}
}
