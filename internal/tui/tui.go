package tui

import (
	"context"

	"dashgrid/internal/notify"
	"dashgrid/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
)

// EnvTheme forces the light or dark palette.
const EnvTheme = "DASHGRID_TUI_THEME"

// Run starts the interactive grid. stateDir holds the small UI state file
// restored on the next launch.
func Run(ctx context.Context, ws *workspace.Workspace, stateDir string) error {
	applyThemePreference()
	applyColorProfilePreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, ws, stateDir)
	defer m.close()
	go ws.Clock.Run(ctx)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	// Notices pushed from background saves wake the view.
	ws.Notices.OnPush = func(n notify.Notice) { p.Send(noticeMsg{notice: n}) }

	final, err := p.Run()
	if fm, ok := final.(appModel); ok {
		fm.saveState()
	}
	return err
}
