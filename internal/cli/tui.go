package cli

import (
	"os/signal"
	"syscall"

	"dashgrid/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive grid (mouse drag to edit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	app.logToFile = true
	ws, closeFn, err := openWorkspace(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	dataDir, err := ws.Config().ResolvedDataDir()
	if err != nil {
		_ = closeFn()
		return writeErr(cmd, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	runErr := tui.Run(ctx, ws, dataDir)
	// Pending saves are flushed after the screen is restored so a sync
	// failure is still visible.
	if err := closeFn(); err != nil {
		return writeErr(cmd, err)
	}
	return runErr
}
