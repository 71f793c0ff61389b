// Package memory provides an in-memory Store for tests and single-process use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps ledger state in maps. Records are copied on the way in and
// out, so callers never share memory with the store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Account storage, keyed by holder
	accounts map[string]*account.Account

	// Rate checkpoints in effective order
	checkpoints []*schedule.Checkpoint

	// Journal in append order, with an index by ID
	entries     []*journal.Entry
	entriesByID map[string]*journal.Entry
}

func New() *Store {
	return &Store{
		accounts:    make(map[string]*account.Account),
		checkpoints: make([]*schedule.Checkpoint, 0),
		entries:     make([]*journal.Entry, 0),
		entriesByID: make(map[string]*journal.Entry),
	}
}

// Account Store implementation
func (s *Store) GetAccount(_ context.Context, holder string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	if a, ok := s.accounts[holder]; ok {
		return a.Clone(), nil
	}
	return nil, demurrage.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}

	holders := make([]string, 0, len(s.accounts))
	for h := range s.accounts {
		holders = append(holders, h)
	}
	sort.Strings(holders)

	result := make([]*account.Account, 0, len(holders))
	for _, h := range holders {
		result = append(result, s.accounts[h].Clone())
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SaveAccounts(_ context.Context, accounts ...*account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return demurrage.ErrStoreClosed
	}
	for _, a := range accounts {
		if existing, ok := s.accounts[a.Holder]; ok {
			c := a.Clone()
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			s.accounts[a.Holder] = c
			continue
		}
		s.accounts[a.Holder] = a.Clone()
	}
	return nil
}

// Checkpoint Store implementation
func (s *Store) AppendCheckpoint(_ context.Context, c *schedule.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return demurrage.ErrStoreClosed
	}
	for _, existing := range s.checkpoints {
		if existing.ID == c.ID || existing.EffectiveAt.Equal(c.EffectiveAt) {
			return demurrage.ErrCheckpointExists
		}
	}

	cp := *c
	s.checkpoints = append(s.checkpoints, &cp)
	sort.SliceStable(s.checkpoints, func(i, j int) bool {
		return s.checkpoints[i].EffectiveAt.Before(s.checkpoints[j].EffectiveAt)
	})
	return nil
}

func (s *Store) ListCheckpoints(_ context.Context) ([]*schedule.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	result := make([]*schedule.Checkpoint, 0, len(s.checkpoints))
	for _, c := range s.checkpoints {
		cp := *c
		result = append(result, &cp)
	}
	return result, nil
}

// Journal Store implementation
func (s *Store) AppendEntry(_ context.Context, e *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return demurrage.ErrStoreClosed
	}
	if _, exists := s.entriesByID[e.ID.String()]; exists {
		return demurrage.ErrEntryAlreadyExists
	}

	cp := *e
	s.entries = append(s.entries, &cp)
	s.entriesByID[cp.ID.String()] = &cp
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID id.EntryID) (*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	if e, ok := s.entriesByID[entryID.String()]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, demurrage.ErrEntryNotFound
}

func (s *Store) QueryEntries(_ context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}

	var result []*journal.Entry
	for _, e := range s.entries {
		if opts.Holder != "" && !e.Involves(opts.Holder) {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if !opts.Since.IsZero() && e.OccurredAt.Before(opts.Since) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return demurrage.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
