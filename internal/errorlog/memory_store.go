package errorlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// implements Store in memory. used when no database is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	s.records[rec.ID] = &stored

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	out := *rec
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, filter) {
			matched = append(matched, *rec)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return []Record{}, total, nil
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return matched[offset:end], total, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, update StatusUpdate) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	rec.Status = update.Status
	if update.Notes != nil {
		rec.Notes = *update.Notes
	}

	rec.ResolvedAt = update.ResolvedAt
	rec.ResolvedBy = update.ResolvedBy

	out := *rec
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrRecordNotFound
	}

	delete(s.records, id)
	return nil
}

func (s *MemoryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, rec := range s.records {
		if rec.Status.IsTerminal() && rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

func (s *MemoryStore) Stats(_ context.Context, since time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := newStats()
	for _, rec := range s.records {
		stats.Total++
		stats.ByStatus[rec.Status]++
		stats.BySeverity[rec.Severity]++
		stats.ByType[rec.Type]++

		if rec.Status == StatusOpen {
			stats.Open++
		}

		if !rec.CreatedAt.Before(since) {
			stats.Last24h++
		}
	}

	return stats, nil
}

func matches(rec *Record, f Filter) bool {
	if f.Identity != "" && rec.Identity != f.Identity {
		return false
	}

	if f.Status != "" && rec.Status != f.Status {
		return false
	}

	if f.Severity != "" && rec.Severity != f.Severity {
		return false
	}

	if f.Type != "" && rec.Type != f.Type {
		return false
	}

	return true
}
