package cli

import (
	"fmt"
	"strings"

	"dashgrid/internal/grid"
	"dashgrid/internal/model"
	"dashgrid/internal/timebox"
	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
)

func newTimeboxCmd(app *App) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "timebox",
		Short: "Week planner: paint time slots with activities",
		Long: strings.TrimSpace(`
Cells are addressed as d<day>-HH-MM, where day 0 is Monday of the selected
week and HH-MM is the slot's start time, e.g. d0-07-30.
`),
	}
	cmd.PersistentFlags().IntVar(&week, "week", 0, "Week offset from the current week (-1 = last week)")

	planner := func(cmd *cobra.Command, ws *workspace.Workspace) (*timebox.Planner, error) {
		if week == 0 {
			return ws.Timebox(), nil
		}
		return ws.SetWeek(cmd.Context(), week)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the week as merged blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				snap := p.Snapshot()
				blocks := p.Blocks()
				if blocks == nil {
					blocks = []timebox.Block{}
				}
				return map[string]any{"data": map[string]any{
					"key":       p.Key(),
					"weekStart": snap.WeekStart,
					"grid":      p.Config(),
					"blocks":    blocks,
					"slots":     snap.Slots,
				}}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "assign <from> <to> <activity>",
		Short: "Fill the rectangle between two cells with one activity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				from, err := parseCell(p.Config(), args[0])
				if err != nil {
					return nil, err
				}
				to, err := parseCell(p.Config(), args[1])
				if err != nil {
					return nil, err
				}
				cs, err := p.Assign(from, to, strings.TrimSpace(args[2]))
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": cs}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <cell>...",
		Short: "Clear the whole block under each cell",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				var keys []string
				for _, a := range args {
					co, err := parseCell(p.Config(), a)
					if err != nil {
						return nil, err
					}
					cs, err := p.ClearAt(co)
					if err != nil {
						return nil, err
					}
					keys = append(keys, cs.Keys...)
				}
				return map[string]any{"data": map[string]any{"keys": keys}}, nil
			})
		},
	})

	var undo bool
	completeCmd := &cobra.Command{
		Use:   "complete <cell>",
		Short: "Mark the block under a cell as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				co, err := parseCell(p.Config(), args[0])
				if err != nil {
					return nil, err
				}
				cs, err := p.SetCompleted(co, !undo)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": cs}, nil
			})
		},
	}
	completeCmd.Flags().BoolVar(&undo, "undo", false, "Mark as not done")
	cmd.AddCommand(completeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Hours per activity for the week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": p.WeekStats()}, nil
			})
		},
	})

	activities := &cobra.Command{
		Use:   "activities",
		Short: "List activity types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": p.ActivityTypes()}, nil
			})
		},
	}
	var name, color string
	var workout bool
	addActivity := &cobra.Command{
		Use:   "add <id>",
		Short: "Add an activity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				p, err := planner(cmd, ws)
				if err != nil {
					return nil, err
				}
				t := model.ActivityType{ID: strings.TrimSpace(args[0]), Name: name, Color: color, CountType: model.CountTime}
				if workout {
					t.CountType = model.CountWorkout
				}
				if t.Name == "" {
					t.Name = t.ID
				}
				if err := p.AddActivity(t); err != nil {
					return nil, err
				}
				return map[string]any{"data": t}, nil
			})
		},
	}
	addActivity.Flags().StringVar(&name, "name", "", "Display name")
	addActivity.Flags().StringVar(&color, "color", "#64748b", "Color (#rrggbb)")
	addActivity.Flags().BoolVar(&workout, "workout", false, "Count sessions instead of hours")
	activities.AddCommand(addActivity)
	cmd.AddCommand(activities)

	return cmd
}

func parseCell(cfg grid.Config, s string) (grid.Coord, error) {
	co, ok := cfg.ParseKey(strings.TrimSpace(s))
	if !ok {
		return grid.Coord{}, fmt.Errorf("invalid cell %q (want d<day>-HH-MM inside %02d:00-%02d:00)", s, cfg.StartHour, cfg.EndHour)
	}
	return co, nil
}
