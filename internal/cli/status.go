package cli

import (
	"dashgrid/internal/store"
	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the backend holds for the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				entries, err := ws.Entries(cmd.Context())
				if err != nil {
					return nil, err
				}
				if entries == nil {
					entries = []store.Entry{}
				}
				cfg := ws.Config()
				return map[string]any{"data": map[string]any{
					"user":    cfg.User,
					"backend": cfg.Backend,
					"week":    ws.Timebox().Key(),
					"entries": entries,
				}}, nil
			})
		},
	}
}
