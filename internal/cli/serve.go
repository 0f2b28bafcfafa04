package cli

import (
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dashgrid/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the surfaces over HTTP, SSE and WebSocket",
		Long: strings.TrimSpace(`
Endpoints:
  GET  /health
  GET  /surfaces                      surface list and sync status
  GET  /surfaces/{surface}            current frame
  POST /surfaces/{surface}/pointer    {"type":"down|move|up|cancel","x":0,"y":0}
  GET  /surfaces/{surface}/events     Datastar SSE stream of frames
  GET  /ws/{surface}                  pointer events in, frames out

Surfaces: timebox, kanban, sidebar. Remote clients address cells directly:
x is the day (or column), y is the slot (or row).
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			ws, closeFn, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = closeFn() }()

			srv, err := server.New(server.Config{Addr: listenAddr, ReadOnly: readOnly}, ws, ws.Logger())
			if err != nil {
				return writeErr(cmd, err)
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String() + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"user":      ws.User(),
					"readOnly":  readOnly,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "dashgrid serving %s (user=%s)\n", url, ws.User())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, ln); err != nil {
				ws.Logger().Error("server stopped", zap.Error(err))
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3340", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject pointer events")
	return cmd
}
