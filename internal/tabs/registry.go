package tabs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/pkg/broadcast"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/logger"
)

const metaKey = "tabMeta"

// Authenticator is the part of the backend a tab needs.
type Authenticator interface {
	GetSession(ctx context.Context, accessToken string) (*backend.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Tab is one signed-in browser tab.
type Tab struct {
	ID          string
	UserID      string
	Role        string
	AccessToken string
	OpenedAt    time.Time
	Session     *idlesession.Manager

	store    *tabStore
	finished sync.Once
}

type tabMeta struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
	OpenedAt    int64  `json:"openedAt"`
}

// StorePrefix is the namespace of a tab inside the shared store.
func StorePrefix(tabID string) string {
	return "tab:" + tabID + ":"
}

// Registry owns the tabs of this process.
type Registry struct {
	mu     sync.Mutex
	tabs   map[string]*Tab
	closed bool

	cfg            idlesession.Config
	store          idlesession.Store
	hub            *broadcast.Hub[Notice]
	auth           Authenticator
	clock          idlesession.TimeSource
	log            *slog.Logger
	signOutTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source handed to every manager.
func WithClock(c idlesession.TimeSource) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the registry logger. Managers log through it too.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSignOutTimeout bounds the backend call made when a tab logs out.
func WithSignOutTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.signOutTimeout = d
		}
	}
}

// NewRegistry creates an empty registry. cfg is validated by the first
// manager it creates.
func NewRegistry(cfg idlesession.Config, store idlesession.Store, hub *broadcast.Hub[Notice], auth Authenticator, opts ...Option) *Registry {
	r := &Registry{
		tabs:           make(map[string]*Tab),
		cfg:            cfg,
		store:          store,
		hub:            hub,
		auth:           auth,
		clock:          idlesession.SystemClock{},
		log:            logger.Discard(),
		signOutTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("tabs"))
	return r
}

// Open registers a new tab for a signed-in user and starts its idle session.
func (r *Registry) Open(ctx context.Context, userID, role, accessToken string) (*Tab, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRegistryShut
	}

	id := uuid.NewString()
	tab := &Tab{
		ID:          id,
		UserID:      userID,
		Role:        role,
		AccessToken: accessToken,
		OpenedAt:    r.clock.Now(),
		store:       newTabStore(r.store, id, r.cfg.StorageKey),
	}
	r.saveMeta(ctx, tab)
	tab.Session = r.newManager(tab)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryShut
	}
	r.tabs[id] = tab
	r.mu.Unlock()

	tab.Session.StartSession(ctx, userID)
	r.log.InfoContext(ctx, "tab opened", logger.TabID(id), logger.UserID(userID), logger.Role(role))
	return tab, nil
}

// Get returns a registered tab. A tab unknown to this process is restored
// from the store when its backend session and idle window are still valid.
func (r *Registry) Get(ctx context.Context, id string) (*Tab, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidTabID
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryShut
	}
	tab, ok := r.tabs[id]
	r.mu.Unlock()
	if ok {
		return tab, nil
	}

	tab, err := r.restore(ctx, id)
	if err != nil {
		if !errors.Is(err, errNoStoredState) {
			r.log.DebugContext(ctx, "tab not restored", logger.TabID(id), logger.Error(err))
		}
		return nil, ErrTabNotFound
	}
	return tab, nil
}

// Close ends the tab's session on request of the user and signs it out.
func (r *Registry) Close(ctx context.Context, id string) error {
	tab, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	tab.Session.EndSession(ctx)
	r.finish(ctx, tab)
	r.drop(tab)
	r.log.InfoContext(ctx, "tab closed", logger.TabID(id), logger.UserID(tab.UserID))
	return nil
}

// Len returns the number of tabs held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Shutdown stops every timer and releases the tabs without ending their
// sessions, so a later process can restore them from a persistent store.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	tabs := r.tabs
	r.tabs = make(map[string]*Tab)
	r.mu.Unlock()

	for _, tab := range tabs {
		tab.Session.Close()
	}
	r.log.InfoContext(ctx, "tab registry shut down", slog.Int("tabs", len(tabs)))
	return nil
}

func (r *Registry) newManager(tab *Tab) *idlesession.Manager {
	return idlesession.NewFromConfig(r.cfg,
		idlesession.WithStore(tab.store),
		idlesession.WithClock(r.clock),
		idlesession.WithLogger(r.log.With(logger.TabID(tab.ID))),
		idlesession.WithNotifier(idlesession.NotifierFuncs{
			OnWarning: func(ctx context.Context, message string) {
				r.publish(ctx, tab.ID, Notice{Kind: NoticeWarning, Message: message})
			},
			OnDismissed: func(ctx context.Context) {
				r.publish(ctx, tab.ID, Notice{Kind: NoticeWarningDismissed})
			},
			OnTimeout: func(ctx context.Context) {
				r.publish(ctx, tab.ID, Notice{Kind: NoticeTimeout})
			},
		}),
		idlesession.WithLogout(func(ctx context.Context) {
			// The tab stays registered until its stored state is gone, so a
			// racing Get cannot restore it.
			r.finish(ctx, tab)
			r.drop(tab)
		}),
	)
}

func (r *Registry) restore(ctx context.Context, id string) (*Tab, error) {
	store := newTabStore(r.store, id, r.cfg.StorageKey)
	raw, err := store.Get(ctx, metaKey)
	if err != nil {
		if errors.Is(err, idlesession.ErrNotFound) {
			return nil, errNoStoredState
		}
		return nil, err
	}

	var meta tabMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta.UserID == "" {
		r.discard(ctx, store)
		return nil, errors.Join(errors.New("unreadable tab metadata"), err)
	}
	if _, err := r.auth.GetSession(ctx, meta.AccessToken); err != nil {
		r.discard(ctx, store)
		return nil, err
	}
	store.remember(raw)

	tab := &Tab{
		ID:          id,
		UserID:      meta.UserID,
		Role:        meta.Role,
		AccessToken: meta.AccessToken,
		OpenedAt:    time.UnixMilli(meta.OpenedAt),
		store:       store,
	}
	tab.Session = r.newManager(tab)
	if !tab.Session.Resume(ctx) {
		r.finish(ctx, tab)
		return nil, errors.New("idle window already elapsed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tabs[id]; ok {
		// Lost a race with a concurrent restore.
		tab.Session.Close()
		return existing, nil
	}
	if r.closed {
		tab.Session.Close()
		return nil, ErrRegistryShut
	}
	r.tabs[id] = tab
	r.log.InfoContext(ctx, "tab restored", logger.TabID(id), logger.UserID(tab.UserID))
	return tab, nil
}

// drop removes tab unless the registry already holds a newer one under its id.
func (r *Registry) drop(tab *Tab) {
	r.mu.Lock()
	if r.tabs[tab.ID] == tab {
		delete(r.tabs, tab.ID)
	}
	r.mu.Unlock()
}

// finish clears the tab metadata, signs the tab out of the backend and
// tells its listeners. Only the first call per tab does anything.
func (r *Registry) finish(ctx context.Context, tab *Tab) {
	tab.finished.Do(func() { r.signOut(ctx, tab) })
}

func (r *Registry) signOut(ctx context.Context, tab *Tab) {
	if err := tab.store.Remove(ctx, metaKey); err != nil {
		r.log.WarnContext(ctx, "failed to remove tab metadata", logger.TabID(tab.ID), logger.Error(err))
	}

	signCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.signOutTimeout)
	defer cancel()
	if err := r.auth.SignOut(signCtx, tab.AccessToken); err != nil {
		r.log.WarnContext(ctx, "backend sign-out failed", logger.TabID(tab.ID), logger.UserID(tab.UserID), logger.Error(err))
	}

	r.publish(ctx, tab.ID, Notice{Kind: NoticeLogout})
}

func (r *Registry) discard(ctx context.Context, store idlesession.Store) {
	for _, key := range []string{metaKey, r.cfg.StorageKey} {
		if err := store.Remove(ctx, key); err != nil {
			r.log.WarnContext(ctx, "failed to discard tab state", logger.Key(key), logger.Error(err))
		}
	}
}

func (r *Registry) saveMeta(ctx context.Context, tab *Tab) {
	raw, err := json.Marshal(tabMeta{
		UserID:      tab.UserID,
		Role:        tab.Role,
		AccessToken: tab.AccessToken,
		OpenedAt:    tab.OpenedAt.UnixMilli(),
	})
	if err == nil {
		err = tab.store.saveMeta(ctx, string(raw))
	}
	if err != nil {
		// The tab still works; it just cannot be restored after a restart.
		r.log.WarnContext(ctx, "failed to persist tab metadata", logger.TabID(tab.ID), logger.Error(err))
	}
}

func (r *Registry) publish(ctx context.Context, tabID string, n Notice) {
	n.At = r.clock.Now().UnixMilli()
	if _, err := r.hub.Publish(ctx, tabID, n); err != nil {
		r.log.DebugContext(ctx, "notice not published", logger.TabID(tabID), slog.String("kind", string(n.Kind)), logger.Error(err))
	}
}
