package publish

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"
	"dashgrid/internal/timebox"
)

type RenderOptions struct {
	// IncludeEmptyDays lists days without blocks as "Nothing planned".
	IncludeEmptyDays bool
}

// RenderWeekMarkdown renders one week of the planner as a day-by-day list of
// blocks with a summary.
func RenderWeekMarkdown(cfg grid.Config, snap model.TimeboxSnapshot, opt RenderOptions) (string, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(snap.WeekStart))
	if err != nil {
		return "", fmt.Errorf("invalid week start %q", snap.WeekStart)
	}
	names := map[string]string{}
	for _, t := range snap.ActivityTypes {
		names[t.ID] = t.Name
	}
	name := func(id string) string {
		if n := strings.TrimSpace(names[id]); n != "" {
			return n
		}
		return id
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Week of " + start.Format("Mon 2 Jan 2006"))
	writeLn("")

	st := timebox.StatsOf(cfg, snap)
	writeLn("## Summary")
	writeLn("")
	writeLn(fmt.Sprintf("- Planned: %.1fh", st.TotalHours))
	writeLn(fmt.Sprintf("- Done: %d", st.CompletedTasks))
	if st.Workouts > 0 {
		writeLn(fmt.Sprintf("- Workouts: %d", st.Workouts))
	}
	if st.TopActivity != "" {
		writeLn("- Top activity: " + name(st.TopActivity))
	}
	if len(st.ByActivity) > 0 {
		writeLn("")
		writeLn("| Activity | Hours | Sessions |")
		writeLn("| --- | ---: | ---: |")
		for _, a := range st.ByActivity {
			writeLn(fmt.Sprintf("| %s | %.1f | %d |", name(a.ActivityID), a.Hours, a.Sessions))
		}
	}

	byDay := map[int][]timebox.Block{}
	for _, b := range timebox.BlocksOf(cfg, snap.Slots) {
		byDay[b.Day] = append(byDay[b.Day], b)
	}
	for d := 0; d < cfg.Days; d++ {
		blocks := byDay[d]
		if len(blocks) == 0 && !opt.IncludeEmptyDays {
			continue
		}
		writeLn("")
		writeLn("## " + start.AddDate(0, 0, d).Format("Monday 2 Jan"))
		writeLn("")
		if len(blocks) == 0 {
			writeLn("Nothing planned.")
			continue
		}
		for _, b := range blocks {
			box := "[ ]"
			if b.Completed {
				box = "[x]"
			}
			line := fmt.Sprintf("- %s %s–%s %s", box, cfg.SlotLabel(b.StartSlot), cfg.SlotLabel(b.EndSlot+1), name(b.ActivityID))
			if c := strings.TrimSpace(b.Content); c != "" {
				line += ": " + c
			}
			writeLn(line)
		}
	}
	return buf.String(), nil
}

// RenderBoardMarkdown renders the board column by column. Cards in the
// completed column are checked.
func RenderBoardMarkdown(cols []model.KanbanColumn, cards [][]model.Card) (string, error) {
	if len(cards) != len(cols) {
		return "", errors.New("publish: card columns do not match board columns")
	}
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Todos")
	for i, c := range cols {
		writeLn("")
		title := strings.TrimSpace(c.Icon + " " + c.Title)
		writeLn(fmt.Sprintf("## %s (%d)", title, len(cards[i])))
		if len(cards[i]) == 0 {
			continue
		}
		writeLn("")
		box := "[ ]"
		if c.ID == "completed" {
			box = "[x]"
		}
		for _, card := range cards[i] {
			writeLn("- " + box + " " + strings.TrimSpace(card.Title))
			for _, l := range strings.Split(strings.TrimSpace(card.Content), "\n") {
				if l = strings.TrimSpace(l); l != "" {
					writeLn("  " + l)
				}
			}
		}
	}
	return buf.String(), nil
}
