package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"token_hub/internal/pkg/logger"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BYTEA NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW());`
	getQuery         = `SELECT value FROM kv WHERE key = $1;`
	putQuery         = `INSERT INTO kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();`
	deleteQuery      = `DELETE FROM kv WHERE key = $1;`
)

// Postgres implements Store using a single key-value table. It exists for
// deployments that already run Postgres and want the ledger state in the same
// database as everything else.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgres connects to the database at the given URI, verifies
// connectivity, and ensures the kv table exists.
func NewPostgres(databaseURI string, l *logger.Logger) (*Postgres, error) {
	const defaultTimeout = 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		l.Sugar().Errorf("Failed to open a database: %s", err)
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		l.Sugar().Errorf("Database ping failed: %s", err)
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, createTableQuery); err != nil {
		l.Sugar().Errorf("Failed to execute a query createTableQuery: %s", err)
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool, log: l}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		p.log.Sugar().Errorf("Failed to execute a query getQuery: %s", err)
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, putQuery, key, value); err != nil {
		p.log.Sugar().Errorf("Failed to execute a query putQuery: %s", err)
		return err
	}
	return nil
}

// PutAll upserts all entries within one database transaction.
func (p *Postgres) PutAll(ctx context.Context, entries map[string][]byte) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for key, value := range entries {
		if _, err := tx.Exec(ctx, putQuery, key, value); err != nil {
			p.log.Sugar().Errorf("Failed to execute a query putQuery: %s", err)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, deleteQuery, key); err != nil {
		p.log.Sugar().Errorf("Failed to execute a query deleteQuery: %s", err)
		return err
	}
	return nil
}

// Close closes the connection pool if it is open.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
