package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dashgrid/internal/format"
	"dashgrid/internal/workspace"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import all of a user's dashboard state",
	}

	var out string
	var copyOut bool
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the current week, the board and the settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b := ws.Export()
			if err := closeFn(); err != nil {
				return writeErr(cmd, err)
			}

			var buf bytes.Buffer
			if err := format.Write(&buf, b, app.Format, true); err != nil {
				return writeErr(cmd, err)
			}
			if copyOut {
				if err := clipboard.WriteAll(buf.String()); err != nil {
					return writeErr(cmd, err)
				}
			}
			if p := strings.TrimSpace(out); p != "" {
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					return writeErr(cmd, err)
				}
				if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": p, "bytes": buf.Len()}})
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	export.Flags().BoolVar(&copyOut, "copy", false, "Also copy the export to the clipboard")
	cmd.AddCommand(export)

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file|->",
		Short: "Replace state with an export (json or yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			inFormat := app.Format
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
				switch strings.ToLower(filepath.Ext(args[0])) {
				case ".yaml", ".yml":
					inFormat = "yaml"
				case ".json":
					inFormat = "json"
				}
			}
			var b workspace.Bundle
			if err := format.Decode(r, &b, inFormat); err != nil {
				return writeErr(cmd, errors.New("invalid snapshot: "+err.Error()))
			}
			return withWorkspace(cmd, app, func(ws *workspace.Workspace) (any, error) {
				if err := ws.Import(b); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{
					"timebox":  b.Timebox != nil,
					"todos":    b.Todos != nil,
					"settings": b.Settings != nil,
				}}, nil
			})
		},
	})

	return cmd
}
