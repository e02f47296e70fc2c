package idletest

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
)

// ErrStoreUnavailable is returned by FailingStore.
var ErrStoreUnavailable = errors.New("idletest.store_unavailable")

// Recorder is a Notifier and Dismisser that records every call, plus a
// LogoutFunc counter.
type Recorder struct {
	mu        sync.Mutex
	warnings  []string
	timeouts  int
	dismissed int
	logouts   int
}

func (r *Recorder) Warning(_ context.Context, message string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, message)
	r.mu.Unlock()
}

func (r *Recorder) Timeout(context.Context) {
	r.mu.Lock()
	r.timeouts++
	r.mu.Unlock()
}

func (r *Recorder) WarningDismissed(context.Context) {
	r.mu.Lock()
	r.dismissed++
	r.mu.Unlock()
}

// Logout is a LogoutFunc that counts invocations.
func (r *Recorder) Logout(context.Context) {
	r.mu.Lock()
	r.logouts++
	r.mu.Unlock()
}

// Warnings returns the warning messages received so far.
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

func (r *Recorder) Timeouts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeouts
}

func (r *Recorder) Dismissed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dismissed
}

func (r *Recorder) Logouts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logouts
}

// FailingStore wraps a Store and fails the operations that are switched on.
type FailingStore struct {
	idlesession.Store

	mu                       sync.Mutex
	failGet, failSet, failRm bool
}

// NewFailingStore wraps next. All operations pass through until switched off.
func NewFailingStore(next idlesession.Store) *FailingStore {
	return &FailingStore{Store: next}
}

// FailReads toggles Get failures.
func (s *FailingStore) FailReads(on bool) { s.mu.Lock(); s.failGet = on; s.mu.Unlock() }

// FailWrites toggles Set failures.
func (s *FailingStore) FailWrites(on bool) { s.mu.Lock(); s.failSet = on; s.mu.Unlock() }

// FailRemoves toggles Remove failures.
func (s *FailingStore) FailRemoves(on bool) { s.mu.Lock(); s.failRm = on; s.mu.Unlock() }

func (s *FailingStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return "", ErrStoreUnavailable
	}
	return s.Store.Get(ctx, key)
}

func (s *FailingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return ErrStoreUnavailable
	}
	return s.Store.Set(ctx, key, value)
}

func (s *FailingStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.failRm
	s.mu.Unlock()
	if fail {
		return ErrStoreUnavailable
	}
	return s.Store.Remove(ctx, key)
}
