package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File keeps one JSON file per module under <dir>/<user>/<module>.json.
type File struct {
	Dir string
}

func NewFile(dir string) *File {
	return &File{Dir: dir}
}

func (f *File) path(key string) (string, error) {
	user, module, err := SplitKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, user, module+".json"), nil
}

func (f *File) Load(_ context.Context, key string) ([]byte, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (f *File) Save(_ context.Context, key string, data []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *File) List(_ context.Context, user string) ([]Entry, error) {
	entries, err := os.ReadDir(filepath.Join(f.Dir, user))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{
			User:      user,
			Module:    strings.TrimSuffix(name, ".json"),
			Size:      int(info.Size()),
			UpdatedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out, nil
}

func (f *File) Close() error { return nil }
