package cli

import (
	"errors"
	"strconv"
	"strings"

	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
)

func newSidebarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Reorder the dashboard modules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List modules in sidebar order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				snap := ws.Sidebar.Snapshot()
				return map[string]any{
					"data": ws.Sidebar.Modules(),
					"meta": map[string]any{"darkSidebar": snap.DarkSidebar, "order": snap.ModuleOrder},
				}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <module-id> <index>",
		Short: "Move a module to a zero-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				cs, err := ws.Sidebar.Move(strings.TrimSpace(args[0]), index)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"order": ws.Sidebar.Order(), "changes": cs}}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default module order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				cs := ws.Sidebar.Reset()
				return map[string]any{"data": map[string]any{"order": ws.Sidebar.Order(), "changes": cs}}, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "theme <dark|light>",
		Short: "Set the sidebar theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dark bool
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "dark":
				dark = true
			case "light":
			default:
				return writeErr(cmd, errors.New("theme must be dark or light"))
			}
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				ws.Sidebar.SetDark(dark)
				return map[string]any{"data": map[string]any{"darkSidebar": dark}}, nil
			})
		},
	})

	return cmd
}
