package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStorage keeps one JSONB row per key in record_collections. The table is
// created by db.Migrate.
type PgStorage struct {
	pool *pgxpool.Pool
}

func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	return &PgStorage{pool: pool}
}

func (p *PgStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `
		SELECT value
		FROM record_collections
		WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (p *PgStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO record_collections (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = now()
	`, key, value)
	return err
}

func (p *PgStorage) Remove(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM record_collections WHERE key = $1`, key)
	return err
}

func (p *PgStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
