package backend

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryIdentity struct {
	user User
	hash []byte
}

// Memory is an in-process Client. Sessions expire after the configured TTL.
type Memory struct {
	mu         sync.RWMutex
	identities map[string]*memoryIdentity // by lower-cased email
	sessions   map[string]Session         // by access token
	rows       map[string]map[string]Row  // table -> id -> row

	ttl  time.Duration
	cost int
	now  func() time.Time
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the time source used for session expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory returns an empty in-memory backend.
func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	m := &Memory{
		identities: make(map[string]*memoryIdentity),
		sessions:   make(map[string]Session),
		rows:       make(map[string]map[string]Row, len(tables)),
		ttl:        cfg.SessionTTL,
		cost:       cfg.BcryptCost,
		now:        time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = 24 * time.Hour
	}
	if m.cost < bcrypt.MinCost || m.cost > bcrypt.MaxCost {
		m.cost = bcrypt.DefaultCost
	}
	for _, t := range tables {
		m.rows[t] = make(map[string]Row)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateUser registers an identity. Emails are case-insensitive and unique.
func (m *Memory) CreateUser(_ context.Context, email, password string) (*User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || password == "" {
		return nil, errors.Join(ErrInvalidCredentials, errors.New("email and password are required"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[key]; ok {
		return nil, ErrDuplicateRecord
	}
	id := &memoryIdentity{
		user: User{ID: uuid.NewString(), Email: key, CreatedAt: m.now()},
		hash: hash,
	}
	m.identities[key] = id
	u := id.user
	return &u, nil
}

func (m *Memory) SignInWithPassword(_ context.Context, email, password string) (*Session, *User, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.RLock()
	id, ok := m.identities[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(id.hash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	s := Session{
		AccessToken: uuid.NewString(),
		UserID:      id.user.ID,
		ExpiresAt:   m.now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.AccessToken] = s
	m.mu.Unlock()

	u := id.user
	return &s, &u, nil
}

func (m *Memory) GetSession(_ context.Context, accessToken string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[accessToken]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, accessToken)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// SignOut revokes the token. Unknown tokens are ignored.
func (m *Memory) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	delete(m.sessions, accessToken)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Select(_ context.Context, table, id string) (Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[table][id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return maps.Clone(row), nil
}

func (m *Memory) Insert(_ context.Context, table string, row Row) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if err := checkRow(row); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[table][row.ID()]; ok {
		return ErrDuplicateRecord
	}
	m.rows[table][row.ID()] = maps.Clone(row)
	return nil
}
