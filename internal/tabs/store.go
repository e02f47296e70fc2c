package tabs

import (
	"context"
	"sync"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
)

// tabStore is the store of one tab. Every write of the session record
// rewrites the tab metadata too, so both keys share the same expiry in a
// store with per-key TTLs.
type tabStore struct {
	idlesession.Store
	recordKey string

	mu   sync.Mutex
	meta string
}

func newTabStore(shared idlesession.Store, tabID, recordKey string) *tabStore {
	return &tabStore{
		Store:     idlesession.NewPrefixStore(shared, StorePrefix(tabID)),
		recordKey: recordKey,
	}
}

func (s *tabStore) Set(ctx context.Context, key, value string) error {
	if err := s.Store.Set(ctx, key, value); err != nil {
		return err
	}
	if key != s.recordKey {
		return nil
	}

	s.mu.Lock()
	meta := s.meta
	s.mu.Unlock()
	if meta == "" {
		return nil
	}
	return s.Store.Set(ctx, metaKey, meta)
}

func (s *tabStore) Remove(ctx context.Context, key string) error {
	if key == metaKey {
		s.remember("")
	}
	return s.Store.Remove(ctx, key)
}

// saveMeta persists raw as the tab metadata and keeps it for later rewrites.
func (s *tabStore) saveMeta(ctx context.Context, raw string) error {
	s.remember(raw)
	return s.Store.Set(ctx, metaKey, raw)
}

func (s *tabStore) remember(raw string) {
	s.mu.Lock()
	s.meta = raw
	s.mu.Unlock()
}
