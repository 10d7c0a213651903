// Package mcpserver exposes the gobuster scanner as a Model Context Protocol
// tool, over stdio or HTTP (streamable and legacy SSE).
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/pkg/version"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `gobauto runs the locally installed gobuster for directory (dir), subdomain (dns) and virtual-host (vhost) enumeration.
It copes with both gobuster argument styles: the legacy positional form ("gobuster dir -u ...") and the older flag form ("gobuster -m dir -u ..."), falling back from one to the other once when the installed binary rejects the first.
Results report which style worked in "invocation_used". A state of "exhausted" means gobuster is installed but accepted neither style.`

// Scanner runs one gobuster request.
type Scanner interface {
	Scan(ctx context.Context, req gobuster.Request) (*gobuster.Result, error)
}

// Config holds MCP server configuration.
type Config struct {
	// Scanner executes tool calls. Required.
	Scanner Scanner
	// Metrics, if set, is mounted at /metrics on the HTTP handler.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server wraps the MCP server with the gobuster tool.
type Server struct {
	mcp     *mcp.Server
	scanner Scanner
	metrics http.Handler
	log     *slog.Logger
}

// New creates a new MCP server with its tools registered.
func New(cfg *Config) *Server {
	s := &Server{
		scanner: cfg.Scanner,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "gobauto",
			Title:   "gobuster runner",
			Version: version.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	s.addScanTool()
	return s
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// RunStdio serves over stdin/stdout until ctx is done or the client hangs up.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler mounting:
//   - /health  liveness probe
//   - /metrics Prometheus metrics, when configured
//   - /sse     legacy SSE transport
//   - /mcp, /  streamable HTTP transport
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{},
	)
	sse := mcp.NewSSEHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		nil,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.Handle("/sse", sse)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return s.recoveryMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"gobauto-mcp"}`))
}

// recoveryMiddleware turns handler panics into a 500 instead of dropping the
// connection.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic in HTTP handler", "error", err, "stack", string(debug.Stack()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failure in-band so the caller can correct its
// arguments instead of seeing a protocol error.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}
