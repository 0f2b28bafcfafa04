package tui

import (
	"strings"

	"dashgrid/internal/docs"
	"dashgrid/internal/surface"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

var tabLabels = map[string]string{
	viewTimebox: "1 Timebox",
	viewKanban:  "2 Todos",
	viewSidebar: "3 Sidebar",
}

func (m appModel) View() string {
	if m.showHelp {
		w := m.width
		if w > 100 {
			w = 100
		}
		body, _ := docs.Get("tui")
		return renderMarkdown(body, w)
	}

	var header, columns string
	var body []string
	switch m.view {
	case viewKanban:
		header, columns, body = m.kanbanView()
	case viewSidebar:
		header, columns, body = m.sidebarView()
	default:
		header, columns, body = m.timeboxView()
	}

	rows := m.bodyRows()
	lines := make([]string, 0, gridTop+rows+footerRows)
	lines = append(lines, m.tabsView(), header, columns)
	for i := 0; i < rows; i++ {
		if i < len(body) {
			lines = append(lines, body[i])
		} else {
			lines = append(lines, "")
		}
	}
	lines = append(lines, m.statusView(), m.help.View(viewKeys{km: m.keys, view: m.view}))
	return strings.Join(lines, "\n")
}

func (m appModel) tabsView() string {
	var b strings.Builder
	for _, name := range surface.Names() {
		b.WriteString(styleTab(name == m.view).Render(tabLabels[name]))
	}
	return b.String()
}

// tabAt maps a column of the tab row to its view. Each tab is its label
// plus one cell of padding on both sides.
func (m appModel) tabAt(x int) (string, bool) {
	start := 0
	for _, name := range surface.Names() {
		w := xansi.StringWidth(tabLabels[name]) + 2
		if x >= start && x < start+w {
			return name, true
		}
		start += w
	}
	return "", false
}

func (m appModel) statusView() string {
	if m.adding {
		return m.input.View()
	}
	left := ""
	if n, ok := m.ws.Notices.Latest(); ok {
		left = styleNotice(string(n.Level)).Render(n.Message)
	} else if m.status != "" {
		level := "info"
		if m.errored {
			level = "error"
		}
		left = styleNotice(level).Render(m.status)
	}

	right := "saved"
	for _, st := range m.ws.Status() {
		if st.LastErr != "" {
			right = "offline"
			break
		}
		if st.Pending {
			right = "saving…"
		}
	}
	right = styleMuted().Render(right)

	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// fit truncates s to w cells and pads it with spaces to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > w {
		s = truncate.StringWithTail(s, uint(w), "…")
	}
	if pad := w - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
