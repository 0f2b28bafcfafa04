package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/lib/pq"
)

// Postgres keeps snapshots in a hosted user_data table, one row per
// (user_id, module), written with an upsert.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: postgres backend needs a DSN (postgresDSN in config)")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_data (
			user_id TEXT NOT NULL,
			module TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, module)
		)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, bool, error) {
	user, module, err := SplitKey(key)
	if err != nil {
		return nil, false, err
	}
	var data []byte
	err = p.db.QueryRowContext(ctx,
		`SELECT data FROM user_data WHERE user_id = $1 AND module = $2`, user, module).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (p *Postgres) Save(ctx context.Context, key string, data []byte) error {
	user, module, err := SplitKey(key)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO user_data (user_id, module, data, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, module) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		user, module, string(data))
	return err
}

func (p *Postgres) List(ctx context.Context, user string) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT module, octet_length(data::text), updated_at FROM user_data
		WHERE user_id = $1 ORDER BY module`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e := Entry{User: user}
		if err := rows.Scan(&e.Module, &e.Size, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
