package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/readaloud/internal/config"
	"github.com/example/readaloud/internal/reader"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/tts"
	"github.com/example/readaloud/internal/voice"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Controller drives speech for the open document.
type Controller interface {
	Toggle() error
	Cancel()
	State() tts.State
	Session() (tts.SessionInfo, bool)
}

// VoiceLister returns the ranked voice menu.
type VoiceLister interface {
	Menu() []voice.Entry
}

// Navigator moves the reading position.
type Navigator interface {
	GoLeft() error
	GoRight() error
	GoToFraction(f float64) error
	GoTo(href string) error
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   4096,
		requestTimeout: 15 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum allowed request body size for POSTs.
func WithMaxBodyBytes(n int) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithRequestTimeout bounds how long any request may take to answer.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	ctrl   Controller
	voices VoiceLister
	nav    Navigator
	opts   options
	log    *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /voices, /status,
// POST /tts, and POST /nav.
func NewHandler(ctrl Controller, voices VoiceLister, nav Navigator, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		ctrl:   ctrl,
		voices: voices,
		nav:    nav,
		opts:   opts,
		log:    opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/voices", h.handleVoices)
	mux.HandleFunc("/status", h.handleStatus)
	mux.HandleFunc("/tts", h.handleTTS)
	mux.HandleFunc("/nav", h.handleNav)

	if opts.requestTimeout > 0 {
		return http.TimeoutHandler(mux, opts.requestTimeout, `{"error":"request timed out"}`)
	}
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type voiceEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	Selected bool   `json:"selected"`
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	menu := h.voices.Menu()
	out := make([]voiceEntry, 0, len(menu))
	for _, e := range menu {
		out = append(out, voiceEntry{
			ID:       e.Voice.ID,
			Name:     e.Voice.Name,
			Lang:     e.Voice.Lang,
			Selected: e.Checked,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type statusResponse struct {
	State   string           `json:"state"`
	Session *tts.SessionInfo `json:"session,omitempty"`
}

func (h *handler) status() statusResponse {
	resp := statusResponse{State: h.ctrl.State().String()}
	if sess, ok := h.ctrl.Session(); ok {
		resp.Session = &sess
	}
	return resp
}

func (h *handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

type ttsRequest struct {
	Action string `json:"action"`
}

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "toggle":
		err = h.ctrl.Toggle()
	case "start":
		if h.ctrl.State() != tts.Speaking {
			err = h.ctrl.Toggle()
		}
	case "stop":
		h.ctrl.Cancel()
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown action %q (want toggle|start|stop)", req.Action))
		return
	}

	if err != nil {
		if errors.Is(err, synth.ErrBusy) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "speech action failed",
			slog.String("action", req.Action),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "speech action",
		slog.String("action", req.Action),
		slog.String("state", h.ctrl.State().String()),
	)
	writeJSON(w, http.StatusOK, h.status())
}

type navRequest struct {
	Action   string   `json:"action"`
	Fraction *float64 `json:"fraction,omitempty"`
	Href     string   `json:"href,omitempty"`
}

func (h *handler) handleNav(w http.ResponseWriter, r *http.Request) {
	var req navRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "left":
		err = h.nav.GoLeft()
	case "right":
		err = h.nav.GoRight()
	case "fraction":
		if req.Fraction == nil {
			writeError(w, http.StatusBadRequest, "fraction field is required")
			return
		}
		err = h.nav.GoToFraction(*req.Fraction)
	case "href":
		if req.Href == "" {
			writeError(w, http.StatusBadRequest, "href field is required")
			return
		}
		err = h.nav.GoTo(req.Href)
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown action %q (want left|right|fraction|href)", req.Action))
		return
	}

	if err != nil {
		h.log.WarnContext(r.Context(), "navigation failed",
			slog.String("action", req.Action),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.DebugContext(r.Context(), "navigated", slog.String("action", req.Action))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodePost enforces the POST method and body limit, then decodes JSON
// into v. It writes the error response itself and reports success.
func (h *handler) decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.opts.maxBodyBytes))

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server hosts the control API for one reader shell.
type Server struct {
	cfg             config.Config
	shell           *reader.Shell
	shutdownTimeout time.Duration
}

func New(cfg config.Config, shell *reader.Shell) *Server {
	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		cfg:             cfg,
		shell:           shell,
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	ctrl := s.shell.Controller()

	handlerOpts := []Option{
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
	}

	h := NewHandler(ctrl, ctrl.Voices(), s.shell.View(), handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
