package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	data      []byte
	updatedAt time.Time
}

// Memory is a process-local backend.
type Memory struct {
	mu   sync.Mutex
	data map[string]memEntry
}

func NewMemory() *Memory {
	return &Memory{data: map[string]memEntry{}}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	user, module, err := SplitKey(key)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[Key(user, module)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	user, module, err := SplitKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Key(user, module)] = memEntry{data: append([]byte(nil), data...), updatedAt: time.Now().UTC()}
	return nil
}

func (m *Memory) List(_ context.Context, user string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	prefix := user + "/"
	for k, e := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, Entry{User: user, Module: strings.TrimPrefix(k, prefix), Size: len(e.data), UpdatedAt: e.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out, nil
}

func (m *Memory) Close() error { return nil }
