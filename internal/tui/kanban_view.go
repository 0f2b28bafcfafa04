package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// kanbanDrop parses the board preview: the dragged card ID, then
// "<status>:<index>".
func kanbanDrop(preview []string) (card, status string, index int, ok bool) {
	if len(preview) != 2 {
		return "", "", 0, false
	}
	i := strings.LastIndexByte(preview[1], ':')
	if i < 0 {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(preview[1][i+1:])
	if err != nil {
		return "", "", 0, false
	}
	return preview[0], preview[1][:i], n, true
}

func (m appModel) kanbanView() (header, columns string, body []string) {
	b := m.ws.Kanban
	cols := b.Columns()
	cards := b.Cards()
	cw := m.kanbanColumnWidth()
	dragged, dropStatus, dropIndex, dragging := kanbanDrop(b.Frame().Preview)

	total := 0
	for _, c := range cards {
		total += len(c)
	}
	header = lipgloss.NewStyle().Bold(true).Render("Todos") + "  " + styleMuted().Render(fmt.Sprintf("%d cards", total))

	titles := make([]string, 0, len(cols))
	for i, c := range cols {
		titles = append(titles, styleChrome().Bold(true).Render(fit(fmt.Sprintf("%s %s (%d)", c.Icon, c.Title, len(cards[i])), cw)))
	}
	columns = strings.Join(titles, strings.Repeat(" ", gapX))

	for r := 0; r < m.bodyRows(); r++ {
		cells := make([]string, 0, len(cols))
		empty := true
		for i, c := range cols {
			marker := dragging && c.ID == dropStatus && r == dropIndex
			if r >= len(cards[i]) {
				if marker && r == len(cards[i]) {
					cells = append(cells, styleSelected().Render(fit("▸ drop here", cw)))
					empty = false
				} else {
					cells = append(cells, strings.Repeat(" ", cw))
				}
				continue
			}
			empty = false
			card := cards[i][r]
			text := "  " + card.Title
			if marker {
				text = "▸ " + card.Title
			}
			st := lipgloss.NewStyle()
			switch {
			case dragging && card.ID == dragged:
				st = styleMuted().Italic(true)
			case card.ID == m.lastCard:
				st = styleSelected()
			}
			cells = append(cells, st.Render(fit(text, cw)))
		}
		if empty {
			break
		}
		body = append(body, strings.Join(cells, strings.Repeat(" ", gapX)))
	}
	return header, columns, body
}
