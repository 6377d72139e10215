package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/example/readaloud/internal/tts"
)

// ---------------------------------------------------------------------------
// Tool arguments
// ---------------------------------------------------------------------------

type ReadToggleArgs struct{}

type ReadStopArgs struct{}

type ReaderStatusArgs struct{}

type ListVoicesArgs struct{}

type SelectVoiceArgs struct {
	ID string `json:"id" jsonschema:"Voice ID as reported by list_voices"`
}

type OpenDocumentArgs struct {
	Path string `json:"path" jsonschema:"Document path; relative paths resolve against the library directory"`
}

type NavigateArgs struct {
	Action   string   `json:"action" jsonschema:"One of left | right | fraction | href"`
	Fraction *float64 `json:"fraction,omitempty" jsonschema:"Progress fraction between 0 and 1 for the fraction action"`
	Href     string   `json:"href,omitempty" jsonschema:"Section href for the href action"`
}

func textResult(lines ...string) *sdk.CallToolResult {
	content := make([]sdk.Content, 0, len(lines))
	for _, line := range lines {
		content = append(content, &sdk.TextContent{Text: line})
	}
	return &sdk.CallToolResult{Content: content}
}

// ---------------------------------------------------------------------------
// Speech tools
// ---------------------------------------------------------------------------

func (s *Server) handleReadToggle(ctx context.Context, req *sdk.CallToolRequest, args ReadToggleArgs) (*sdk.CallToolResult, any, error) {
	ctrl := s.shell.Controller()
	if err := ctrl.Toggle(); err != nil {
		return nil, nil, fmt.Errorf("toggle speech: %w", err)
	}

	state := ctrl.State().String()
	s.log.DebugContext(ctx, "toggled speech", slog.String("state", state))
	return textResult(state), nil, nil
}

func (s *Server) handleReadStop(ctx context.Context, req *sdk.CallToolRequest, args ReadStopArgs) (*sdk.CallToolResult, any, error) {
	s.shell.Controller().Cancel()
	s.log.DebugContext(ctx, "stopped speech")
	return textResult(tts.Idle.String()), nil, nil
}

// statusPayload is the structured counterpart of reader_status text output.
type statusPayload struct {
	State    string           `json:"state"`
	Session  *tts.SessionInfo `json:"session,omitempty"`
	Path     string           `json:"path,omitempty"`
	Title    string           `json:"title,omitempty"`
	Sections int              `json:"sections,omitempty"`
}

func (s *Server) handleReaderStatus(ctx context.Context, req *sdk.CallToolRequest, args ReaderStatusArgs) (*sdk.CallToolResult, any, error) {
	ctrl := s.shell.Controller()

	payload := statusPayload{State: ctrl.State().String()}
	if sess, ok := ctrl.Session(); ok {
		payload.Session = &sess
	}

	lines := []string{"state: " + payload.State}
	if doc, ok := s.shell.Document(); ok {
		payload.Path = s.shell.Path()
		payload.Title = doc.Title
		payload.Sections = len(doc.Sections)
		lines = append(lines, fmt.Sprintf("document: %s (%d sections)", doc.Title, len(doc.Sections)))
	} else {
		lines = append(lines, "document: none")
	}

	return textResult(lines...), payload, nil
}

// ---------------------------------------------------------------------------
// Voice tools
// ---------------------------------------------------------------------------

func (s *Server) handleListVoices(ctx context.Context, req *sdk.CallToolRequest, args ListVoicesArgs) (*sdk.CallToolResult, any, error) {
	menu := s.shell.Controller().Voices().Menu()

	lines := make([]string, 0, len(menu)+1)
	lines = append(lines, fmt.Sprintf("Voices (%d):", len(menu)))
	for _, e := range menu {
		line := fmt.Sprintf("- %s (%s) id=%s", e.Voice.Name, e.Voice.Lang, e.Voice.ID)
		if e.Checked {
			line += " [selected]"
		}
		lines = append(lines, line)
	}
	return textResult(lines...), nil, nil
}

func (s *Server) handleSelectVoice(ctx context.Context, req *sdk.CallToolRequest, args SelectVoiceArgs) (*sdk.CallToolResult, any, error) {
	voices := s.shell.Controller().Voices()
	for _, e := range voices.Menu() {
		if e.Voice.ID == args.ID {
			voices.Select(args.ID)
			s.log.DebugContext(ctx, "voice selected", slog.String("id", args.ID))
			return textResult(fmt.Sprintf("selected %s (%s)", e.Voice.Name, e.Voice.Lang)), nil, nil
		}
	}
	return nil, nil, fmt.Errorf("voice %q is not in the menu; use list_voices to see the choices", args.ID)
}

// ---------------------------------------------------------------------------
// Document tools
// ---------------------------------------------------------------------------

func (s *Server) handleOpenDocument(ctx context.Context, req *sdk.CallToolRequest, args OpenDocumentArgs) (*sdk.CallToolResult, any, error) {
	path := args.Path
	if !filepath.IsAbs(path) && s.libraryDir != "" {
		path = filepath.Join(s.libraryDir, path)
	}

	if err := s.shell.Open(path); err != nil {
		return nil, nil, err
	}

	doc, _ := s.shell.Document()
	s.log.DebugContext(ctx, "document opened", slog.String("path", path))
	return textResult(fmt.Sprintf("opened %q (%d sections)", doc.Title, len(doc.Sections))), nil, nil
}

func (s *Server) handleNavigate(ctx context.Context, req *sdk.CallToolRequest, args NavigateArgs) (*sdk.CallToolResult, any, error) {
	v := s.shell.View()

	var err error
	switch args.Action {
	case "left":
		err = v.GoLeft()
	case "right":
		err = v.GoRight()
	case "fraction":
		if args.Fraction == nil {
			return nil, nil, errors.New("fraction action needs the fraction field")
		}
		err = v.GoToFraction(*args.Fraction)
	case "href":
		if args.Href == "" {
			return nil, nil, errors.New("href action needs the href field")
		}
		err = v.GoTo(args.Href)
	default:
		return nil, nil, fmt.Errorf("unknown action %q (want left|right|fraction|href)", args.Action)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("navigate %s: %w", args.Action, err)
	}

	s.log.DebugContext(ctx, "navigated", slog.String("action", args.Action))
	return textResult("ok"), nil, nil
}
