package tui

import (
	"fmt"
	"strings"

	"dashgrid/internal/clock"
	"dashgrid/internal/grid"
	"dashgrid/internal/model"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) timeboxView() (header, columns string, body []string) {
	p := m.ws.Timebox()
	cfg := p.Config()
	frame := p.Frame()
	snap := p.Snapshot()
	cw := m.timeboxCellWidth()

	colors := map[string]model.ActivityType{}
	for _, t := range snap.ActivityTypes {
		colors[t.ID] = t
	}
	current := colors[p.Activity()]
	preview := map[string]bool{}
	for _, k := range frame.Preview {
		preview[k] = true
	}

	weekStart := clock.WeekStart(m.now).AddDate(0, 0, 7*m.ws.WeekOffset())
	var when string
	switch off := m.ws.WeekOffset(); {
	case off == 0:
		when = "this week"
	case off == 1:
		when = "next week"
	case off == -1:
		when = "last week"
	case off > 0:
		when = fmt.Sprintf("in %d weeks", off)
	default:
		when = fmt.Sprintf("%d weeks ago", -off)
	}
	st := p.WeekStats()
	header = strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render("Week of " + weekStart.Format("Mon 2 Jan 2006")),
		styleMuted().Render(when),
		styleActivity(current.Color).Render(" " + current.Name + " "),
		styleMuted().Render(fmt.Sprintf("%.1fh planned · %d done", st.TotalHours, st.CompletedTasks)),
	}, "  ")

	var cols strings.Builder
	cols.WriteString(strings.Repeat(" ", gutter))
	for d := 0; d < cfg.Days; d++ {
		if d > 0 {
			cols.WriteString(strings.Repeat(" ", gapX))
		}
		day := weekStart.AddDate(0, 0, d)
		label := day.Format("Mon 2")
		if cw < 6 {
			label = day.Format("Mon")[:cw-1]
		}
		cols.WriteString(styleChrome().Render(fit(label, cw)))
	}
	columns = cols.String()

	nowSlot := -1
	if m.ws.WeekOffset() == 0 {
		if s, ok := cfg.SlotAt(m.now.Hour(), m.now.Minute()); ok {
			nowSlot = s
		}
	}

	rows := m.bodyRows()
	for r := 0; r < rows; r++ {
		slot := m.firstSlot + r
		if slot >= cfg.SlotsPerDay() {
			break
		}
		var line strings.Builder
		label := fit(cfg.SlotLabel(slot), gutter)
		if slot == nowSlot {
			line.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(label))
		} else {
			line.WriteString(styleMuted().Render(label))
		}
		for d := 0; d < cfg.Days; d++ {
			if d > 0 {
				line.WriteString(strings.Repeat(" ", gapX))
			}
			line.WriteString(m.timeboxCell(cfg, snap, grid.Coord{Day: d, Slot: slot}, cw, preview, colors, current))
		}
		body = append(body, line.String())
	}
	return header, columns, body
}

func (m appModel) timeboxCell(cfg grid.Config, snap model.TimeboxSnapshot, co grid.Coord, cw int, preview map[string]bool, colors map[string]model.ActivityType, current model.ActivityType) string {
	key := cfg.KeyOf(co)
	if preview[key] {
		return stylePreview(current.Color).Render(fit(" "+current.Name, cw))
	}
	s, ok := snap.Slots[key]
	if !ok {
		return styleEmptyCell().Render(fit(" ·", cw))
	}
	act := colors[s.ActivityID]
	text := ""
	// Label the top visible cell of each block.
	above, hasAbove := snap.Slots[cfg.KeyOf(grid.Coord{Day: co.Day, Slot: co.Slot - 1})]
	if co.Slot == m.firstSlot || !hasAbove || above.GroupID != s.GroupID {
		name := act.Name
		if name == "" {
			name = s.ActivityID
		}
		text = " " + name
		if s.Completed {
			text = " ✓" + text
		}
	}
	st := styleActivity(act.Color)
	if s.Completed {
		st = st.Strikethrough(true)
	}
	if m.hasLastCell && m.lastCell == co {
		st = st.Underline(true)
	}
	return st.Render(fit(text, cw))
}
