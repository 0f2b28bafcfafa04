// Package store holds the backends that snapshots are persisted to. Every
// backend keeps one opaque blob per (user, module) pair and overwrites it
// wholesale on save.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dashgrid/internal/persist"
)

// DefaultModule is used for keys that carry no module part.
const DefaultModule = "default"

type Backend interface {
	persist.Backend
	// List returns every stored entry for user, sorted by module.
	List(ctx context.Context, user string) ([]Entry, error)
	Close() error
}

type Entry struct {
	User      string    `json:"user"`
	Module    string    `json:"module"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key joins a user and module into a bridge key.
func Key(user, module string) string {
	return user + "/" + module
}

// SplitKey is the inverse of Key. A key without a module part addresses
// DefaultModule.
func SplitKey(key string) (user, module string, err error) {
	key = strings.TrimSpace(key)
	user, module, found := strings.Cut(key, "/")
	if !found {
		module = DefaultModule
	}
	user = strings.TrimSpace(user)
	module = strings.TrimSpace(module)
	if user == "" || module == "" {
		return "", "", fmt.Errorf("store: invalid key %q", key)
	}
	if strings.ContainsAny(module, `/\`) || module == "." || module == ".." || user == "." || user == ".." || strings.Contains(user, `\`) {
		return "", "", fmt.Errorf("store: invalid key %q", key)
	}
	return user, module, nil
}

const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindFile     = "file"
	KindMemory   = "memory"
)

type Options struct {
	Kind        string
	DataDir     string
	PostgresDSN string
}

// Open returns the backend named by opts.Kind (sqlite when empty).
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindSQLite:
		if strings.TrimSpace(opts.DataDir) == "" {
			return nil, errors.New("store: sqlite backend needs a data dir")
		}
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, filepath.Join(opts.DataDir, sqliteFileName))
	case KindPostgres:
		return OpenPostgres(ctx, opts.PostgresDSN)
	case KindFile:
		if strings.TrimSpace(opts.DataDir) == "" {
			return nil, errors.New("store: file backend needs a data dir")
		}
		return NewFile(filepath.Join(opts.DataDir, "data")), nil
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q (expected sqlite|postgres|file|memory)", opts.Kind)
	}
}
