package backend

import (
	"context"
	"errors"
	"slices"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("backend.invalid_credentials")
	ErrSessionNotFound    = errors.New("backend.session_not_found")
	ErrRecordNotFound     = errors.New("backend.record_not_found")
	ErrDuplicateRecord    = errors.New("backend.duplicate_record")
	ErrUnknownTable       = errors.New("backend.unknown_table")
	ErrInvalidRow         = errors.New("backend.invalid_row")
)

// Application tables reachable through Select and Insert.
const (
	TableUsers     = "users"
	TableItems     = "items"
	TableIssuances = "issuances"
)

var tables = []string{TableUsers, TableItems, TableIssuances}

// User is an authentication identity.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken string
	UserID      string
	ExpiresAt   time.Time
}

// Row is a table row keyed by column name. Every row has a string "id".
type Row map[string]any

// ID returns the row id, or "" when missing or not a string.
func (r Row) ID() string {
	id, _ := r["id"].(string)
	return id
}

// String returns the column as a string, or "".
func (r Row) String(col string) string {
	v, _ := r[col].(string)
	return v
}

// Client is the managed auth and database boundary.
type Client interface {
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error)
	SignOut(ctx context.Context, accessToken string) error
	Select(ctx context.Context, table, id string) (Row, error)
	Insert(ctx context.Context, table string, row Row) error
}

// Seeder creates authentication identities. Both implementations provide it.
type Seeder interface {
	CreateUser(ctx context.Context, email, password string) (*User, error)
}

// Config selects and tunes the backend implementation.
type Config struct {
	Driver     string        `env:"BACKEND_DRIVER" envDefault:"memory"`   // memory or postgres.
	SessionTTL time.Duration `env:"BACKEND_SESSION_TTL" envDefault:"24h"` // lifetime of access tokens.
	BcryptCost int           `env:"BACKEND_BCRYPT_COST" envDefault:"10"`
}

func checkTable(table string) error {
	if !slices.Contains(tables, table) {
		return errors.Join(ErrUnknownTable, errors.New(table))
	}
	return nil
}

func checkRow(row Row) error {
	if row.ID() == "" {
		return errors.Join(ErrInvalidRow, errors.New(`missing string column "id"`))
	}
	return nil
}
