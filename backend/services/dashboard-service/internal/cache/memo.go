package cache

import (
	"context"
	"sync"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// maxMemoEntries bounds a single request memo.
const maxMemoEntries = 16

type memoKey struct{}

// RequestMemo remembers view results for the lifetime of one request.
type RequestMemo struct {
	mu      sync.Mutex
	entries map[string]models.ViewResult
}

// WithRequestMemo attaches a fresh memo to ctx.
func WithRequestMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &RequestMemo{entries: make(map[string]models.ViewResult)})
}

// MemoFromContext returns the memo attached to ctx, or nil.
func MemoFromContext(ctx context.Context) *RequestMemo {
	memo, _ := ctx.Value(memoKey{}).(*RequestMemo)
	return memo
}

// Load returns a remembered result. A nil memo always misses.
func (m *RequestMemo) Load(name string) (models.ViewResult, bool) {
	if m == nil {
		return models.ViewResult{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.entries[name]
	return result, ok
}

// Store remembers result unless the memo is full.
func (m *RequestMemo) Store(name string, result models.ViewResult) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok && len(m.entries) >= maxMemoEntries {
		return
	}
	m.entries[name] = result
}
