package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// sidebarDrop parses the list preview: the dragged module, then "i<index>".
func sidebarDrop(preview []string) (module string, index int, ok bool) {
	if len(preview) != 2 || !strings.HasPrefix(preview[1], "i") {
		return "", 0, false
	}
	n, err := strconv.Atoi(preview[1][1:])
	if err != nil {
		return "", 0, false
	}
	return preview[0], n, true
}

func (m appModel) sidebarView() (header, columns string, body []string) {
	s := m.ws.Sidebar
	snap := s.Snapshot()
	mods := s.Modules()
	dragged, dropIndex, dragging := sidebarDrop(s.Frame().Preview)

	theme := "light"
	if snap.DarkSidebar {
		theme = "dark"
	}
	header = lipgloss.NewStyle().Bold(true).Render("Sidebar") + "  " + styleMuted().Render(theme+" · drag to reorder")
	columns = styleChrome().Bold(true).Render(fit("Modules", sidebarWidth))

	focus := m.lastModule
	if dragging {
		focus = dragged
	}
	var detail []string
	if dw := m.width - sidebarWidth - 2; dw >= 10 {
		for _, mod := range mods {
			if mod.ID == focus {
				detail = append(detail, lipgloss.NewStyle().Bold(true).Render(mod.Name))
				detail = append(detail, strings.Split(wordwrap.String(mod.Subtitle, dw), "\n")...)
			}
		}
	}

	base := lipgloss.NewStyle()
	if snap.DarkSidebar {
		base = base.Background(colorDarkPanel).Foreground(colorOnBlock)
	}
	for i, mod := range mods {
		if i >= m.bodyRows() {
			break
		}
		prefix := "  "
		if dragging && i == dropIndex {
			prefix = "▸ "
		}
		st := base
		switch {
		case dragging && mod.ID == dragged:
			st = styleSelected().Bold(true)
		case mod.ID == m.lastModule:
			st = styleSelected()
		}
		line := st.Render(fit(fmt.Sprintf("%s%d  %s", prefix, i+1, mod.Name), sidebarWidth))
		if i < len(detail) {
			line += "  " + detail[i]
		}
		body = append(body, line)
	}
	return header, columns, body
}
