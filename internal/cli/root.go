package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dashgrid/internal/config"
	"dashgrid/internal/format"
	"dashgrid/internal/logging"
	"dashgrid/internal/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	User       string
	Backend    string
	DataDir    string
	PrettyJSON bool
	Format     string
	LogLevel   string

	// logToFile sends logs to <dataDir>/dashgrid.log so they do not draw
	// over a full-screen UI.
	logToFile bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "dashgrid",
		Short:        "Drag-to-edit week planner, todo board and sidebar",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  dashgrid

  # Paint Monday 07:00-09:00 as work
  dashgrid timebox assign d0-07-00 d0-08-30 work

  # Move a sidebar module to the top
  dashgrid sidebar move finance 0

  # Serve JSON, SSE and WebSocket endpoints
  dashgrid serve --addr 127.0.0.1:3340
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.User, "user", envOr("DASHGRID_USER", ""), "User id (overrides config)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr("DASHGRID_BACKEND", ""), "Storage backend (sqlite|postgres|file|memory)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("DASHGRID_DATA_DIR", ""), "Directory for local backends")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("DASHGRID_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("DASHGRID_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newTimeboxCmd(app))
	cmd.AddCommand(newKanbanCmd(app))
	cmd.AddCommand(newSidebarCmd(app))
	cmd.AddCommand(newSnapshotCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(app *App) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(app.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(app.Backend); v != "" {
		cfg.Backend = v
	}
	if v := strings.TrimSpace(app.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

func newLogger(app *App, cfg config.Config) (*zap.Logger, func() error, error) {
	path := strings.TrimSpace(cfg.Log.File)
	if path == "" && app.logToFile {
		path = "dashgrid.log"
	}
	if path != "" && !filepath.IsAbs(path) {
		dir, err := cfg.ResolvedDataDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, path)
	}
	level := cfg.Log.Level
	if path == "" && strings.TrimSpace(app.LogLevel) == "" {
		// Keep one-shot commands quiet on stderr unless asked.
		level = "warn"
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Log.Format, Path: path})
}

// openWorkspace opens the user's workspace. The returned close func flushes
// pending saves and fails if any of them could not be written.
func openWorkspace(cmd *cobra.Command, app *App) (*workspace.Workspace, func() error, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, nil, err
	}
	log, closeLog, err := newLogger(app, cfg)
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspace.Open(cmd.Context(), workspace.Options{Config: cfg, Logger: log})
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	closeFn := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var failed []string
		ferr := ws.Flush(ctx)
		for key, st := range ws.Status() {
			if st.LastErr != "" {
				failed = append(failed, fmt.Sprintf("%s: %s", key, st.LastErr))
			}
		}
		cerr := ws.Close(ctx)
		_ = closeLog()
		if len(failed) > 0 {
			return fmt.Errorf("could not sync: %s", strings.Join(failed, "; "))
		}
		return errors.Join(ferr, cerr)
	}
	return ws, closeFn, nil
}

// withWorkspace runs fn against an open workspace and writes its result.
func withWorkspace(cmd *cobra.Command, app *App, fn func(ws *workspace.Workspace) (any, error)) error {
	ws, closeFn, err := openWorkspace(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	out, err := fn(ws)
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, out)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
