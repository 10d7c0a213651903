package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/output"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) addScanTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "gobuster_scan",
			Title: "Run gobuster",
			Description: `Brute-force directories (mode "dir"), subdomains ("dns") or virtual hosts ("vhost") with the locally installed gobuster.

The installed gobuster may expect either "gobuster dir -u ..." or the older "gobuster -m dir -u ..."; the tool tries one and falls back to the other once if the binary rejects it. Use "invocation" to force a style.

Returns JSON with state (succeeded, terminal-failure, exhausted), exit_code, invocation_used, every attempt's argv, and the captured output lines. With print_success_only, "surfaced" holds only lines whose status code is in include_statuses.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mode": map[string]any{
						"type":        "string",
						"enum":        []string{"dir", "dns", "vhost"},
						"description": "gobuster mode.",
					},
					"target": map[string]any{
						"type":        "string",
						"description": "URL for dir/vhost, domain for dns.",
					},
					"wordlist": map[string]any{
						"type":        "string",
						"description": "Path to a wordlist readable on the server host.",
					},
					"threads": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"default":     gobuster.DefaultThreads,
						"description": "gobuster -t value.",
					},
					"extra_args": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Additional gobuster arguments, appended verbatim.",
					},
					"print_success_only": map[string]any{
						"type":        "boolean",
						"default":     false,
						"description": "Populate 'surfaced' with only lines whose status is in include_statuses.",
					},
					"include_statuses": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Status allow-list for print_success_only. Default 200,204,301,302,307,403.",
					},
					"invocation": map[string]any{
						"type":        "string",
						"enum":        []string{"auto", "legacy", "flag"},
						"default":     "auto",
						"description": "Argument style: auto tries legacy positional then -m flag.",
					},
				},
				"required": []string{"mode", "target", "wordlist"},
			},
			Annotations: &mcp.ToolAnnotations{
				Title:         "Run gobuster",
				OpenWorldHint: boolPtr(true),
			},
		},
		s.handleScan,
	)
}

type scanArgs struct {
	Mode             string   `json:"mode"`
	Target           string   `json:"target"`
	Wordlist         string   `json:"wordlist"`
	Threads          int      `json:"threads"`
	ExtraArgs        []string `json:"extra_args"`
	PrintSuccessOnly bool     `json:"print_success_only"`
	IncludeStatuses  []int    `json:"include_statuses"`
	Invocation       string   `json:"invocation"`
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args scanArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	mode, err := gobuster.ParseMode(args.Mode)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	pref, err := gobuster.ParsePreference(args.Invocation)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if args.Wordlist == gobuster.StdinWordlist {
		return errorResult(`wordlist "-" (stdin) is not available over MCP; pass a file path`), nil
	}

	result, err := s.scanner.Scan(ctx, gobuster.Request{
		Mode:             mode,
		Target:           args.Target,
		Wordlist:         args.Wordlist,
		Threads:          args.Threads,
		ExtraArgs:        args.ExtraArgs,
		PrintSuccessOnly: args.PrintSuccessOnly,
		StatusAllowList:  args.IncludeStatuses,
		Invocation:       pref,
	})
	if err != nil {
		s.log.Warn("gobuster_scan failed", "target", args.Target, "error", err)
		switch {
		case errors.Is(err, gobuster.ErrToolNotFound):
			return errorResult(err.Error() + ". Install gobuster on the server host."), nil
		default:
			return errorResult(err.Error()), nil
		}
	}
	return jsonResult(output.NewEntry(result))
}

func boolPtr(b bool) *bool { return &b }
