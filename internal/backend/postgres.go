package backend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/stockroom/pkg/pg"
)

// Migrations holds the schema applied by Postgres.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Postgres is a Client backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	cost int
	now  func() time.Time
}

// NewPostgres wraps an open pool. Call Migrate before first use.
func NewPostgres(pool *pgxpool.Pool, cfg Config) *Postgres {
	p := &Postgres{pool: pool, ttl: cfg.SessionTTL, cost: cfg.BcryptCost, now: time.Now}
	if p.ttl <= 0 {
		p.ttl = 24 * time.Hour
	}
	if p.cost < bcrypt.MinCost || p.cost > bcrypt.MaxCost {
		p.cost = bcrypt.DefaultCost
	}
	return p
}

// Migrate applies the embedded schema.
func (p *Postgres) Migrate(ctx context.Context, cfg pg.Config, log *slog.Logger) error {
	cfg.MigrationsDir = "migrations"
	return pg.Migrate(ctx, p.pool, Migrations, cfg, log)
}

func (p *Postgres) CreateUser(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.Join(ErrInvalidCredentials, errors.New("email and password are required"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}

	u := User{ID: uuid.NewString(), Email: email}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO auth_users (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		u.ID, u.Email, string(hash),
	).Scan(&u.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error) {
	var (
		u    User
		hash string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM auth_users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &hash, &u.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("sign in: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	s := Session{AccessToken: uuid.NewString(), UserID: u.ID, ExpiresAt: p.now().Add(p.ttl)}
	if _, err := p.pool.Exec(ctx,
		`INSERT INTO auth_sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.AccessToken, s.UserID, s.ExpiresAt,
	); err != nil {
		return nil, nil, fmt.Errorf("sign in: %w", err)
	}
	return &s, &u, nil
}

func (p *Postgres) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	var s Session
	err := p.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at FROM auth_sessions WHERE token = $1 AND expires_at > $2`,
		accessToken, p.now(),
	).Scan(&s.AccessToken, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (p *Postgres) SignOut(ctx context.Context, accessToken string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE token = $1`, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (p *Postgres) Select(ctx context.Context, table, id string) (Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", pgx.Identifier{table}.Sanitize())
	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return Row(row), nil
}

func (p *Postgres) Insert(ctx context.Context, table string, row Row) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if err := checkRow(row); err != nil {
		return err
	}

	query, args := insertQuery(table, row)
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return ErrDuplicateRecord
		case pg.IsForeignKeyError(err):
			return fmt.Errorf("%w: %s references a missing record", ErrInvalidRow, table)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// insertQuery builds a parameterized INSERT with columns in sorted order.
func insertQuery(table string, row Row) (string, []any) {
	cols := slices.Sorted(maps.Keys(row))
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = pgx.Identifier{c}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(names, ", "), strings.Join(params, ", "))
	return query, args
}
