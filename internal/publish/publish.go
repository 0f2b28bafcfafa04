package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"
)

type WriteOptions struct {
	IncludeEmptyDays bool
	Overwrite        bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// Input is everything a publish run renders.
type Input struct {
	Grid    grid.Config
	Week    model.TimeboxSnapshot
	Columns []model.KanbanColumn
	Cards   [][]model.Card
}

// Write renders the week to week-<start>.md and the board to todos.md
// under toDir.
func Write(in Input, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	weekMD, err := RenderWeekMarkdown(in.Grid, in.Week, RenderOptions{IncludeEmptyDays: opt.IncludeEmptyDays})
	if err != nil {
		return WriteResult{}, err
	}
	boardMD, err := RenderBoardMarkdown(in.Columns, in.Cards)
	if err != nil {
		return WriteResult{}, err
	}

	weekPath := filepath.Join(toDir, "week-"+in.Week.WeekStart+".md")
	if err := writeFile(weekPath, []byte(weekMD), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	boardPath := filepath.Join(toDir, "todos.md")
	if err := writeFile(boardPath, []byte(boardMD), opt.Overwrite); err != nil {
		return WriteResult{Written: []string{weekPath}}, err
	}
	return WriteResult{Written: []string{weekPath, boardPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
