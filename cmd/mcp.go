package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/mcpserver"
	"github.com/maxvaer/gobauto/internal/metrics"
	"github.com/maxvaer/gobauto/internal/output"
	"github.com/spf13/cobra"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve gobuster as an MCP tool (stdio, sse or http)",
	Example: `  gobauto mcp
  gobauto mcp --transport sse --addr :8000
  gobauto mcp --transport http --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		switch mcpTransport {
		case "stdio", "sse", "http":
			return nil
		}
		return fmt.Errorf("--transport must be one of: stdio, sse, http")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		rec := metrics.New()
		// stdout belongs to the stdio transport; invocations are echoed on stderr.
		scanner := gobuster.New(gobuster.Config{
			Binary:   opts.Binary,
			Echo:     output.NewStream(os.Stderr, opts.NoColor, true),
			Logger:   slog.Default(),
			Recorder: rec,
		})
		srv := mcpserver.New(&mcpserver.Config{
			Scanner: scanner,
			Metrics: rec.Handler(),
			Logger:  slog.Default(),
		})

		if mcpTransport == "stdio" {
			return srv.RunStdio(ctx)
		}
		return serveHTTP(ctx, srv.HTTPHandler())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := mcpCmd.Flags()
	f.StringVar(&mcpTransport, "transport", "stdio", "Transport: stdio, sse, http")
	f.StringVar(&mcpAddr, "addr", ":8000", "Listen address for sse and http transports")
}

func serveHTTP(ctx context.Context, handler http.Handler) error {
	hs := &http.Server{
		Addr:              mcpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	endpoint := "/mcp"
	if mcpTransport == "sse" {
		endpoint = "/sse"
	}
	fmt.Fprintf(os.Stderr, "[*] MCP server listening on %s (%s at %s, /health, /metrics)\n", mcpAddr, mcpTransport, endpoint)

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Fprintln(os.Stderr, "[*] MCP server stopped")
	return nil
}
