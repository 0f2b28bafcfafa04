package timebox

import (
	"sort"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"
)

// Block is a vertical run of consecutive cells of one group on one day. A
// view draws each block as a single merged box.
type Block struct {
	Day        int    `json:"day"`
	StartSlot  int    `json:"startSlot"`
	EndSlot    int    `json:"endSlot"` // inclusive
	GroupID    string `json:"groupId"`
	ActivityID string `json:"activityId"`
	Content    string `json:"content,omitempty"`
	Completed  bool   `json:"completed"`
}

func (b Block) Len() int { return b.EndSlot - b.StartSlot + 1 }

// Blocks returns the merged blocks of the week, ordered by day then slot.
func (p *Planner) Blocks() []Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return BlocksOf(p.cfg, p.snap.Slots)
}

func BlocksOf(cfg grid.Config, slots map[string]model.Slot) []Block {
	var out []Block
	for d := 0; d < cfg.Days; d++ {
		var cur *Block
		for s := 0; s < cfg.SlotsPerDay(); s++ {
			slot, ok := slots[cfg.KeyOf(grid.Coord{Day: d, Slot: s})]
			if ok && cur != nil && cur.GroupID == slot.GroupID && cur.ActivityID == slot.ActivityID && cur.EndSlot == s-1 {
				cur.EndSlot = s
				continue
			}
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			if ok {
				cur = &Block{
					Day:        d,
					StartSlot:  s,
					EndSlot:    s,
					GroupID:    slot.GroupID,
					ActivityID: slot.ActivityID,
					Content:    slot.Content,
					Completed:  slot.Completed,
				}
			}
		}
		if cur != nil {
			out = append(out, *cur)
		}
	}
	return out
}

type ActivityTotal struct {
	ActivityID string  `json:"activityId"`
	Hours      float64 `json:"hours"`
	Sessions   int     `json:"sessions"`
}

type Stats struct {
	TotalHours     float64         `json:"totalHours"`
	CompletedTasks int             `json:"completedTasks"`
	TopActivity    string          `json:"topActivity,omitempty"`
	Workouts       int             `json:"workouts"`
	ByActivity     []ActivityTotal `json:"byActivity"`
}

func (p *Planner) WeekStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return StatsOf(p.cfg, p.snap)
}

// StatsOf summarises a week. Hours count every occupied cell inside the
// window; tasks and sessions count groups. Workout-type activities
// contribute sessions, not hours.
func StatsOf(cfg grid.Config, snap model.TimeboxSnapshot) Stats {
	countType := map[string]model.CountType{}
	for _, t := range snap.ActivityTypes {
		countType[t.ID] = t.CountType
	}
	slotHours := float64(cfg.SlotMinutes) / 60

	totals := map[string]*ActivityTotal{}
	groups := map[string]bool{}
	var st Stats
	for k, s := range snap.Slots {
		if _, ok := cfg.ParseKey(k); !ok {
			continue
		}
		t := totals[s.ActivityID]
		if t == nil {
			t = &ActivityTotal{ActivityID: s.ActivityID}
			totals[s.ActivityID] = t
		}
		gid := s.GroupID
		newGroup := gid == "" || !groups[gid]
		if gid != "" {
			groups[gid] = true
		}
		if newGroup {
			t.Sessions++
			if s.Completed {
				st.CompletedTasks++
			}
		}
		if countType[s.ActivityID] == model.CountWorkout {
			if newGroup {
				st.Workouts++
			}
			continue
		}
		t.Hours += slotHours
		st.TotalHours += slotHours
	}

	for _, t := range totals {
		st.ByActivity = append(st.ByActivity, *t)
	}
	sort.Slice(st.ByActivity, func(i, j int) bool {
		a, b := st.ByActivity[i], st.ByActivity[j]
		if a.Hours != b.Hours {
			return a.Hours > b.Hours
		}
		return a.ActivityID < b.ActivityID
	})
	if len(st.ByActivity) > 0 && st.ByActivity[0].Hours > 0 {
		st.TopActivity = st.ByActivity[0].ActivityID
	}
	return st
}

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
