package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/talentmatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST   /match                    Rank candidates (form fields or JSON query)
  POST   /export                   Ranked candidates as CSV (selection_keys form field)
  GET    /candidates/{id}          Candidate profile
  GET    /selections               List saved selections
  POST   /selections               Save a selection
  GET    /selections/{id}          Show a saved selection
  DELETE /selections/{id}          Delete a saved selection
  GET    /selections/{id}/results  Run a saved selection
  GET    /health                   Store health
  GET    /metrics                  Prometheus metrics

Examples:
  talentmatch serve
  talentmatch serve --addr 127.0.0.1:9000`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.Server.Addr = serveAddr
	}

	srv := server.New(a.store, a.matcher, a.metrics, a.logger, a.cfg.Server)
	return srv.Run(ctx)
}
