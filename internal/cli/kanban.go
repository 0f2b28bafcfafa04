package cli

import (
	"strconv"
	"strings"

	"dashgrid/internal/model"
	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
)

type kanbanColumnView struct {
	model.KanbanColumn
	Cards []model.Card `json:"cards"`
}

func newKanbanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "kanban",
		Aliases: []string{"todos"},
		Short:   "Todo board: cards in status columns",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the board column by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				cols := ws.Kanban.Columns()
				cards := ws.Kanban.Cards()
				out := make([]kanbanColumnView, 0, len(cols))
				for i, c := range cols {
					cs := cards[i]
					if cs == nil {
						cs = []model.Card{}
					}
					out = append(out, kanbanColumnView{KanbanColumn: c, Cards: cs})
				}
				return map[string]any{"data": out}, nil
			})
		},
	})

	var content, status string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a card at the bottom of a column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				c, err := ws.Kanban.Add(strings.Join(args, " "), content, status)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": c}, nil
			})
		},
	}
	add.Flags().StringVar(&content, "content", "", "Card body")
	add.Flags().StringVar(&status, "status", "", "Column id (default: first column)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "move <card-id> <status> [index]",
		Short: "Drag a card to a column, optionally at a position",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 1 << 30 // clamps to the end of the column
			if len(args) == 3 {
				n, err := strconv.Atoi(args[2])
				if err != nil {
					return writeErr(cmd, err)
				}
				index = n
			}
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				cs, err := ws.Kanban.Move(args[0], args[1], index)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": cs}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <card-id>",
		Aliases: []string{"remove"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				cs, err := ws.Kanban.Remove(args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": cs}, nil
			})
		},
	})

	return cmd
}
