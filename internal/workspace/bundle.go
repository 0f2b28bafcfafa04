package workspace

import (
	"errors"
	"time"

	"dashgrid/internal/model"
)

const bundleVersion = 1

// Bundle is a full export of one user's dashboard.
type Bundle struct {
	Version    int                     `json:"version"`
	User       string                  `json:"user"`
	ExportedAt time.Time               `json:"exportedAt"`
	Timebox    *model.TimeboxSnapshot  `json:"timebox,omitempty"`
	Todos      *model.KanbanSnapshot   `json:"todos,omitempty"`
	Settings   *model.SettingsSnapshot `json:"settings,omitempty"`
}

// Export captures the current week, the board and the settings.
func (w *Workspace) Export() Bundle {
	tb := w.Timebox().Snapshot()
	todos := w.Kanban.Snapshot()
	settings := w.Sidebar.Snapshot()
	return Bundle{
		Version:    bundleVersion,
		User:       w.cfg.User,
		ExportedAt: w.now().UTC(),
		Timebox:    &tb,
		Todos:      &todos,
		Settings:   &settings,
	}
}

// Import replaces each snapshot present in b. The timebox snapshot goes to
// the week shown, whatever week it was exported from.
func (w *Workspace) Import(b Bundle) error {
	if b.Version > bundleVersion {
		return errors.New("bundle was written by a newer version")
	}
	if b.Timebox == nil && b.Todos == nil && b.Settings == nil {
		return errors.New("bundle is empty")
	}
	if b.Timebox != nil {
		w.Timebox().Replace(*b.Timebox)
	}
	if b.Todos != nil {
		w.Kanban.Replace(*b.Todos)
	}
	if b.Settings != nil {
		w.Sidebar.Replace(*b.Settings)
	}
	return nil
}
