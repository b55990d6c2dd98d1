package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studentorg/newsletter-service/internal/models"
	"github.com/studentorg/newsletter-service/internal/validation"
)

// schemaSQL is embedded so the service can self-bootstrap its backup table.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the advisory backup trail for newsletter subscribers.
// It is not the source of truth — the marketing list is — so callers treat
// every write as best-effort.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the
// database is unreachable. serviceKey, when non-empty, replaces the
// password in dbURL with the privileged service credential so the URL
// itself need not carry it.
//
// The pool is constructed once at process start and injected where needed;
// there is no lazy module-level singleton to race over.
func NewPostgresStore(dbURL, serviceKey string) (*PostgresStore, error) {
	if dbURL == "" || serviceKey == "" {
		return nil, errors.New("missing backup store configuration: BACKUP_DATABASE_URL and BACKUP_DATABASE_SERVICE_KEY must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.Password = serviceKey

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// UpsertSubscriber records a subscriber and returns inserted=false when a
// row with that email already exists.
//
// Conflict action is DO NOTHING, not DO UPDATE: the table is an audit
// trail, so a returning subscriber's name and source keep their values
// from the first insert.
func (p *PostgresStore) UpsertSubscriber(ctx context.Context, sub models.Subscription) (bool, error) {
	email := validation.Normalize(sub.Email)
	if email == "" {
		return false, errors.New("email required")
	}

	// RETURNING 1 only when inserted; conflicts return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO newsletter_subscribers(id, email, first_name, last_name, source)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (email) DO NOTHING
		RETURNING 1
	`, uuid.New(), email, nullable(sub.FirstName), nullable(sub.LastName), nullable(sub.Source)).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
