// Package commit applies finished gestures to the in-memory model. Every
// committer validates the whole change before writing anything, so a commit
// either lands completely or not at all.
package commit

import (
	"fmt"
	"sort"
)

// ChangeSet lists exactly which keys a commit touched. Keys are sorted.
type ChangeSet struct {
	Keys []string `json:"keys"`
	// GroupID is set by grid commits.
	GroupID string `json:"groupId,omitempty"`
}

func (c ChangeSet) Empty() bool { return len(c.Keys) == 0 }

func (c ChangeSet) Contains(key string) bool {
	i := sort.SearchStrings(c.Keys, key)
	return i < len(c.Keys) && c.Keys[i] == key
}

func newChangeSet(keys map[string]bool, groupID string) ChangeSet {
	out := ChangeSet{Keys: make([]string, 0, len(keys)), GroupID: groupID}
	for k := range keys {
		out.Keys = append(out.Keys, k)
	}
	sort.Strings(out.Keys)
	return out
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// OutOfRangeError reports a gesture that addresses a position the model does
// not have.
type OutOfRangeError struct {
	What  string
	Value int
	Len   int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [0,%d)", e.What, e.Value, e.Len)
}
