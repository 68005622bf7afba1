package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoClient remembers responses for the lifetime of one audit so that
// discovery, well-known file checks and page fetches do not request the
// same URL twice. Concurrent requests for one URL share a single call.
// Errors are not remembered.
type MemoClient struct {
	next  Client
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Response
}

// NewMemoClient wraps next.
func NewMemoClient(next Client) *MemoClient {
	return &MemoClient{next: next, cache: make(map[string]*Response)}
}

// Fetch returns the remembered response for rawURL or fetches it.
func (m *MemoClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	m.mu.RLock()
	resp, ok := m.cache[rawURL]
	m.mu.RUnlock()
	if ok {
		return resp, nil
	}

	v, err, _ := m.group.Do(rawURL, func() (any, error) {
		m.mu.RLock()
		cached, ok := m.cache[rawURL]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		resp, err := m.next.Fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[rawURL] = resp
		m.mu.Unlock()
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}
