package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// returned by stores that hold no state for the identity
var ErrStateNotFound = errors.New("credit state not found")

// persists credit state. UpdateCredits loads the identity's state, runs fn on it
// and writes the result back as one atomic read-modify-write; concurrent calls for
// the same identity are serialized. when fn returns an error nothing is written.
// Snapshot reads the stored state without locking or writing it.
type Store interface {
	UpdateCredits(ctx context.Context, identity string, fn func(*State) error) (State, error)
	Snapshot(ctx context.Context, identity string) (State, error)
}

// implements Store in memory with one lock per identity
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*entry),
	}
}

// stores state for an identity, replacing what was there
func (s *MemoryStore) Put(identity string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[identity] = &entry{state: state}
}

// returns a copy of the identity's state
func (s *MemoryStore) Get(identity string) (State, bool) {
	e := s.lookup(identity)
	if e == nil {
		return State{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state, true
}

func (s *MemoryStore) UpdateCredits(_ context.Context, identity string, fn func(*State) error) (State, error) {
	e := s.lookup(identity)
	if e == nil {
		return State{}, fmt.Errorf("%w: %s", ErrStateNotFound, identity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.state
	if err := fn(&working); err != nil {
		return e.state, err
	}

	e.state = working

	return working, nil
}

func (s *MemoryStore) Snapshot(_ context.Context, identity string) (State, error) {
	state, ok := s.Get(identity)
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrStateNotFound, identity)
	}

	return state, nil
}

func (s *MemoryStore) lookup(identity string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.states[identity]
}
