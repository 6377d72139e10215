// Package mcp exposes the reader over the Model Context Protocol, so an
// assistant can open documents, move between sections, and control speech
// through typed tools on a stdio transport.
package mcp

import (
	"context"
	"log/slog"
	"runtime/debug"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/example/readaloud/internal/config"
	"github.com/example/readaloud/internal/reader"
)

const serverName = "readaloud"

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	logger *slog.Logger
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// Option configures the MCP server.
type Option func(*options)

// WithLogger sets the slog.Logger used for tool-call logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server exposes one reader shell as MCP tools.
type Server struct {
	shell      *reader.Shell
	libraryDir string
	mcp        *sdk.Server
	log        *slog.Logger
}

// New builds an MCP server around shell. Relative paths passed to the
// open_document tool resolve against the configured library directory.
func New(cfg config.Config, shell *reader.Shell, optFns ...Option) *Server {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		shell:      shell,
		libraryDir: cfg.Paths.LibraryDir,
		log:        opts.logger,
	}

	s.mcp = sdk.NewServer(&sdk.Implementation{
		Name:    serverName,
		Version: buildVersion(),
	}, nil)
	s.registerTools()
	return s
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// Run serves tool calls over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "read_toggle",
		Description: "Start reading the open document aloud, or stop if already speaking",
	}, s.handleReadToggle)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "read_stop",
		Description: "Stop speech and clear the word highlight",
	}, s.handleReadStop)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "reader_status",
		Description: "Report the speech state and the open document",
	}, s.handleReaderStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_voices",
		Description: "List the installed voices that pass the selection policy",
	}, s.handleListVoices)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_voice",
		Description: "Select the voice used for subsequent utterances",
	}, s.handleSelectVoice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "open_document",
		Description: "Open a text or Markdown document (or a directory of them) in the reader",
	}, s.handleOpenDocument)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "navigate",
		Description: "Move between sections by stepping left or right, or jumping to a progress fraction or section href",
	}, s.handleNavigate)
}
