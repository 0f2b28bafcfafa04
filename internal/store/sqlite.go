package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "dashgrid.sqlite"

// SQLite keeps snapshots in a local user_data table.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI and a CLI invocation share the file; busy_timeout
	// rides out the short write lock.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_data (
			user_id TEXT NOT NULL,
			module TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (user_id, module)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, key string) ([]byte, bool, error) {
	user, module, err := SplitKey(key)
	if err != nil {
		return nil, false, err
	}
	var data string
	err = s.db.QueryRowContext(ctx,
		`SELECT data FROM user_data WHERE user_id = ? AND module = ?;`, user, module).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(data), true, nil
}

func (s *SQLite) Save(ctx context.Context, key string, data []byte) error {
	user, module, err := SplitKey(key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_data (user_id, module, data, updated_at_unixms) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, module) DO UPDATE SET
			data = excluded.data,
			updated_at_unixms = excluded.updated_at_unixms;`,
		user, module, string(data), time.Now().UnixMilli())
	return err
}

func (s *SQLite) List(ctx context.Context, user string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, length(data), updated_at_unixms FROM user_data
		WHERE user_id = ? ORDER BY module;`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.Module, &e.Size, &ms); err != nil {
			return nil, err
		}
		e.User = user
		e.UpdatedAt = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
