package commit

import (
	"errors"
	"strings"
	"time"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"

	"github.com/google/uuid"
)

// Payload is what a rectangular commit writes into every member cell.
type Payload struct {
	ActivityID string
	Content    string
	Completed  bool
}

// GridCommitter writes a payload into a set of time-box cells.
type GridCommitter struct {
	Config grid.Config

	NewGroupID func() string
	Now        func() time.Time
}

func (g GridCommitter) newGroupID() string {
	if g.NewGroupID != nil {
		return g.NewGroupID()
	}
	return "g-" + uuid.NewString()
}

func (g GridCommitter) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

// Commit sets slots[key] for every member. Members must be in row-major order;
// the first one becomes the group's main slot. Existing payloads in member
// cells are overwritten; cells outside members are never touched.
//
// An empty member set or an empty activity is a no-op and returns an empty
// change set.
func (g GridCommitter) Commit(slots map[string]model.Slot, members []grid.Coord, p Payload) (ChangeSet, error) {
	if len(members) == 0 || strings.TrimSpace(p.ActivityID) == "" {
		return ChangeSet{}, nil
	}
	if slots == nil {
		return ChangeSet{}, errors.New("commit: nil slot map")
	}
	keys := make([]string, 0, len(members))
	seen := map[string]bool{}
	for _, co := range members {
		if co.Day < 0 || co.Day >= g.Config.Days {
			return ChangeSet{}, OutOfRangeError{What: "day", Value: co.Day, Len: g.Config.Days}
		}
		if !g.Config.Valid(co) {
			return ChangeSet{}, OutOfRangeError{What: "slot", Value: co.Slot, Len: g.Config.SlotsPerDay()}
		}
		k := g.Config.KeyOf(co)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	groupID := g.newGroupID()
	now := g.now()
	for i, k := range keys {
		slots[k] = model.Slot{
			ActivityID: p.ActivityID,
			Content:    p.Content,
			Completed:  p.Completed,
			GroupID:    groupID,
			IsMain:     i == 0,
			TotalSlots: len(keys),
			UpdatedAt:  now,
		}
	}
	return newChangeSet(seen, groupID), nil
}

// ClearGroups deletes every slot whose group appears in any of keys, plus the
// listed keys themselves.
func ClearGroups(slots map[string]model.Slot, keys []string) ChangeSet {
	groups := map[string]bool{}
	selected := map[string]bool{}
	for _, k := range keys {
		selected[k] = true
		if s, ok := slots[k]; ok && s.GroupID != "" {
			groups[s.GroupID] = true
		}
	}
	changed := map[string]bool{}
	for k, s := range slots {
		if selected[k] || (s.GroupID != "" && groups[s.GroupID]) {
			delete(slots, k)
			changed[k] = true
		}
	}
	return newChangeSet(changed, "")
}

// SetGroupCompleted flips the completed flag on every slot of a group.
func SetGroupCompleted(slots map[string]model.Slot, groupID string, completed bool, now time.Time) (ChangeSet, error) {
	if strings.TrimSpace(groupID) == "" {
		return ChangeSet{}, NotFoundError{Kind: "group", ID: groupID}
	}
	changed := map[string]bool{}
	found := false
	for k, s := range slots {
		if s.GroupID != groupID {
			continue
		}
		found = true
		if s.Completed == completed {
			continue
		}
		s.Completed = completed
		s.UpdatedAt = now
		slots[k] = s
		changed[k] = true
	}
	if !found {
		return ChangeSet{}, NotFoundError{Kind: "group", ID: groupID}
	}
	return newChangeSet(changed, groupID), nil
}
