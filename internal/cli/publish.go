package cli

import (
	"fmt"

	"dashgrid/internal/publish"
	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var to string
	var week int
	var overwrite, emptyDays, raw bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Render the week and the board as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			in, err := publishInput(cmd, ws, week)
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			if raw {
				md, err := publish.RenderWeekMarkdown(in.Grid, in.Week, publish.RenderOptions{IncludeEmptyDays: emptyDays})
				if err != nil {
					return writeErr(cmd, err)
				}
				board, err := publish.RenderBoardMarkdown(in.Columns, in.Cards)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md+"\n"+board)
				return err
			}

			res, err := publish.Write(in, to, publish.WriteOptions{IncludeEmptyDays: emptyDays, Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().IntVar(&week, "week", 0, "Week offset from the current week")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&emptyDays, "empty-days", false, "Include days with nothing planned")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown to stdout instead of writing files")
	return cmd
}

func publishInput(cmd *cobra.Command, ws *workspace.Workspace, week int) (publish.Input, error) {
	p := ws.Timebox()
	if week != 0 {
		var err error
		if p, err = ws.SetWeek(cmd.Context(), week); err != nil {
			return publish.Input{}, err
		}
	}
	return publish.Input{
		Grid:    p.Config(),
		Week:    p.Snapshot(),
		Columns: ws.Kanban.Columns(),
		Cards:   ws.Kanban.Cards(),
	}, nil
}
