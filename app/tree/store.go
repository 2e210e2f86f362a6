package tree

import (
	"strconv"
	"strings"
	"sync"
)

// PageSize is the initial window of a container and the step of ShowMore.
const PageSize = 50

type State struct {
	Expanded     bool
	VisibleCount int
}

func defaultState() State {
	return State{Expanded: true, VisibleCount: PageSize}
}

// Store holds the disclosure state of rendered containers, keyed by node
// path. A path is the chain of entry indices from the document root,
// e.g. "0/3/17".
type Store struct {
	mu     sync.Mutex
	states map[string]State
}

func NewStore() *Store {
	return &Store{states: make(map[string]State)}
}

func JoinPath(parent string, index int) string {
	if parent == "" {
		return strconv.Itoa(index)
	}
	return parent + "/" + strconv.Itoa(index)
}

func (s *Store) State(path string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[path]
	return st, ok
}

// mount returns the state of path, creating the default one for a node
// rendered for the first time.
func (s *Store) mount(path string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[path]
	if !ok {
		st = defaultState()
		s.states[path] = st
	}
	return st
}

// Toggle flips Expanded. Collapsing keeps the node's own window and drops the
// state of every descendant.
func (s *Store) Toggle(path string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[path]
	if !ok {
		st = defaultState()
	}
	st.Expanded = !st.Expanded
	s.states[path] = st

	if !st.Expanded {
		s.forgetDescendants(path)
	}
	return st
}

func (s *Store) ShowMore(path string, total int) State {
	return s.setWindow(path, func(st State) int {
		return min(st.VisibleCount+PageSize, total)
	})
}

func (s *Store) ShowAll(path string, total int) State {
	return s.setWindow(path, func(State) int {
		return total
	})
}

func (s *Store) setWindow(path string, next func(State) int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[path]
	if !ok {
		st = defaultState()
	}
	if count := next(st); count > st.VisibleCount {
		st.VisibleCount = count
	}
	s.states[path] = st
	return st
}

// Reset drops every state, as when the whole tree is unmounted.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.states)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.states)
}

func (s *Store) forgetDescendants(path string) {
	for key := range s.states {
		if isDescendant(key, path) {
			delete(s.states, key)
		}
	}
}

func isDescendant(key, path string) bool {
	if path == "" {
		return key != ""
	}
	return strings.HasPrefix(key, path+"/")
}
