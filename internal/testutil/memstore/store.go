// Package memstore is an in-memory stand-in for the Postgres stores, used by service and handler tests.
// Transactions are serialized by a single mutex and roll back to a snapshot on error.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

var errTxRequired = errors.New("transaction is required")

type pairKey [2]int64

type dedupeKey struct {
	recipientID int64
	key         string
}

// memTx marks calls made inside WithTx. Its pgx.Tx methods are never called.
type memTx struct {
	pgx.Tx
}

type state struct {
	swipes        map[pairKey]model.Swipe
	matches       map[uuid.UUID]model.Match
	pairs         map[pairKey]uuid.UUID
	messages      map[uuid.UUID][]model.Message
	notifications map[uuid.UUID]model.Notification
	dedupe        map[dedupeKey]uuid.UUID
	profiles      map[int64]model.UserSummary
}

func newState() state {
	return state{
		swipes:        map[pairKey]model.Swipe{},
		matches:       map[uuid.UUID]model.Match{},
		pairs:         map[pairKey]uuid.UUID{},
		messages:      map[uuid.UUID][]model.Message{},
		notifications: map[uuid.UUID]model.Notification{},
		dedupe:        map[dedupeKey]uuid.UUID{},
		profiles:      map[int64]model.UserSummary{},
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.swipes {
		out.swipes[k] = v
	}
	for k, v := range s.matches {
		out.matches[k] = v
	}
	for k, v := range s.pairs {
		out.pairs[k] = v
	}
	for k, v := range s.messages {
		out.messages[k] = append([]model.Message(nil), v...)
	}
	for k, v := range s.notifications {
		out.notifications[k] = v
	}
	for k, v := range s.dedupe {
		out.dedupe[k] = v
	}
	for k, v := range s.profiles {
		out.profiles[k] = v
	}
	return out
}

type Store struct {
	mu         sync.Mutex
	st         state
	commitErrs []error
	txCount    int
}

func New() *Store {
	return &Store{st: newState()}
}

// WithTx runs fn while holding the store lock. Any error from fn, or an injected commit error,
// restores the state seen before fn ran.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCount++
	snapshot := s.st.clone()
	if err := fn(ctx, memTx{}); err != nil {
		s.st = snapshot
		return err
	}
	if len(s.commitErrs) > 0 {
		err := s.commitErrs[0]
		s.commitErrs = s.commitErrs[1:]
		s.st = snapshot
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// FailNextCommit makes the next transaction roll back and return err after fn succeeds.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErrs = append(s.commitErrs, err)
}

// TxCount reports how many transactions were opened.
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// AddUser seeds the directory.
func (s *Store) AddUser(users ...model.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.st.profiles[u.ID] = u
	}
}

func (s *Store) Swipes() *Swipes               { return &Swipes{s: s} }
func (s *Store) Matches() *Matches             { return &Matches{s: s} }
func (s *Store) Messages() *Messages           { return &Messages{s: s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }
func (s *Store) Profiles() *Profiles           { return &Profiles{s: s} }

// read runs fn under the store lock unless the caller is already inside WithTx.
func (s *Store) read(tx pgx.Tx, fn func(st *state)) {
	if tx == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(&s.st)
}

func (s *Store) write(tx pgx.Tx, fn func(st *state) error) error {
	if tx == nil {
		return errTxRequired
	}
	return fn(&s.st)
}
