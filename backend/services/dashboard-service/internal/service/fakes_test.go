package service

import (
	"context"
	"sync"

	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/repository"
)

type fakeStore struct {
	mu          sync.Mutex
	rows        map[string]models.Reading
	appendCalls int
	existingErr error
	appendErr   error
	viewCalls   map[string]int
	views       map[string]models.ViewResult
}

func newFakeStore(ids ...string) *fakeStore {
	s := &fakeStore{
		rows:      make(map[string]models.Reading),
		viewCalls: make(map[string]int),
		views:     make(map[string]models.ViewResult),
	}
	for _, id := range ids {
		s.rows[id] = models.Reading{RecordID: id}
	}
	return s
}

func (s *fakeStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existingErr != nil {
		return nil, s.existingErr
	}
	ids := make(map[string]struct{}, len(s.rows))
	for id := range s.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *fakeStore) Append(ctx context.Context, readings []models.Reading) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls++
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	for _, r := range readings {
		if _, ok := s.rows[r.RecordID]; ok {
			return 0, repository.ErrConstraintViolation
		}
	}
	for _, r := range readings {
		s.rows[r.RecordID] = r
	}
	return int64(len(readings)), nil
}

func (s *fakeStore) QueryView(ctx context.Context, name string) (models.ViewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewCalls[name]++
	result, ok := s.views[name]
	if !ok {
		return models.ViewResult{Name: name}, nil
	}
	return result, nil
}

func (s *fakeStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows))
	for id := range s.rows {
		out = append(out, id)
	}
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]models.ViewResult
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.ViewResult)}
}

func (c *fakeCache) Get(ctx context.Context, name string) (models.ViewResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[name]
	return r, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, name string, result models.ViewResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = result
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]models.ViewResult)
	c.invalidated++
	return nil
}
