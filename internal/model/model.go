package model

import "time"

// Module keys under which each surface persists its snapshot.
const (
	ModuleTimebox  = "timebox"
	ModuleTodos    = "todos"
	ModuleSettings = "settings"
)

// Slot is the payload stored in one time-box cell.
type Slot struct {
	ActivityID string `json:"activityId"`
	Content    string `json:"content,omitempty"`
	Completed  bool   `json:"completed"`

	// GroupID is shared by every cell written by the same rectangular commit.
	GroupID string `json:"groupId"`
	// IsMain marks the first member (row-major) of its commit.
	IsMain     bool `json:"isMainSlot"`
	TotalSlots int  `json:"totalSlots"`

	UpdatedAt time.Time `json:"updatedAt"`
}

type CountType string

const (
	CountTime    CountType = "time"
	CountWorkout CountType = "workout"
)

type ActivityType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CountType CountType `json:"countType"`
}

// TimeboxSnapshot is the persisted state of one week of the time-box planner.
type TimeboxSnapshot struct {
	Version       int             `json:"version"`
	WeekStart     string          `json:"weekStart,omitempty"` // YYYY-MM-DD (Monday)
	SlotMinutes   int             `json:"slotMinutes"`
	Slots         map[string]Slot `json:"timeboxes"`
	ActivityTypes []ActivityType  `json:"activityTypes"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// Clone returns a deep copy so callers can hand snapshots to other goroutines.
func (s TimeboxSnapshot) Clone() TimeboxSnapshot {
	out := s
	out.Slots = make(map[string]Slot, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	out.ActivityTypes = append([]ActivityType(nil), s.ActivityTypes...)
	return out
}

// Card is one todo on the kanban board.
type Card struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type KanbanColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

type KanbanSnapshot struct {
	Version     int       `json:"version"`
	Cards       []Card    `json:"cards"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (s KanbanSnapshot) Clone() KanbanSnapshot {
	out := s
	out.Cards = append([]Card(nil), s.Cards...)
	return out
}

// OrderedItem is one entry of a reorderable list. Order is dense and zero-based.
type OrderedItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type ModuleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle,omitempty"`
}

// SettingsSnapshot holds the sidebar preferences, including the module order.
type SettingsSnapshot struct {
	Version     int       `json:"version"`
	ModuleOrder []string  `json:"moduleOrder"`
	DarkSidebar bool      `json:"darkSidebar"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s SettingsSnapshot) Clone() SettingsSnapshot {
	out := s
	out.ModuleOrder = append([]string(nil), s.ModuleOrder...)
	return out
}
