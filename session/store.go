package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeyPrefix namespaces session entries in the key-value store.
const KeyPrefix = "session:"

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

type generation struct {
	seq    uint64
	cancel context.CancelFunc
}

// Store owns the state of every session. Reads are served from memory after
// the first load; every change is written through to the KV store.
type Store struct {
	kv  KV
	log *zap.Logger

	mu       sync.Mutex
	states   map[string]State
	inflight map[string]generation
	seq      uint64
}

// NewStore returns a store persisting to kv. A nil logger falls back to the
// global logger.
func NewStore(kv KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.L()
	}
	return &Store{
		kv:       kv,
		log:      log.Named("session"),
		states:   map[string]State{},
		inflight: map[string]generation{},
	}
}

// Get returns the state of session id. Unknown sessions start empty.
func (s *Store) Get(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// Dispatch applies actions to session id and persists the result.
func (s *Store) Dispatch(id string, actions ...Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(id, actions...)
}

// BeginGeneration starts a generation for session id and marks it loading.
// A generation already running for the same session is cancelled: the
// latest request wins. The returned finish func must be called exactly once
// with the generation's outcome; it clears loading and records a failure,
// unless the generation has since been superseded, in which case it only
// releases the context.
func (s *Store) BeginGeneration(parent context.Context, id string) (context.Context, func(error), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inflight[id]; ok {
		prev.cancel()
		s.log.Debug("superseded in-flight generation", zap.Uint64("seq", prev.seq))
	}

	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(parent)
	s.inflight[id] = generation{seq: seq, cancel: cancel}

	if _, err := s.dispatch(id, SetLoading{Loading: true}, ClearError{}); err != nil {
		cancel()
		delete(s.inflight, id)
		return nil, nil, err
	}

	var once sync.Once
	finish := func(genErr error) {
		once.Do(func() {
			defer cancel()
			s.mu.Lock()
			defer s.mu.Unlock()

			cur, ok := s.inflight[id]
			if !ok || cur.seq != seq {
				return
			}
			delete(s.inflight, id)

			actions := []Action{SetLoading{Loading: false}}
			if genErr != nil && !errors.Is(genErr, context.Canceled) {
				actions = append(actions, SetError{Message: genErr.Error()})
			}
			if _, err := s.dispatch(id, actions...); err != nil {
				s.log.Warn("failed to persist generation outcome", zap.Error(err))
			}
		})
	}
	return ctx, finish, nil
}

// InFlight reports whether session id has a generation running.
func (s *Store) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

func (s *Store) load(id string) (State, error) {
	if st, ok := s.states[id]; ok {
		return st, nil
	}
	var st State
	if _, err := s.kv.Load(KeyPrefix+id, &st); err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}
	s.states[id] = st
	return st, nil
}

func (s *Store) dispatch(id string, actions ...Action) (State, error) {
	cur, err := s.load(id)
	if err != nil {
		return State{}, err
	}
	next := Reduce(cur, actions...)
	if next == cur {
		return cur, nil
	}
	if err := s.kv.Save(KeyPrefix+id, next); err != nil {
		return cur, fmt.Errorf("save session: %w", err)
	}
	s.states[id] = next
	return next, nil
}
