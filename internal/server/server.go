// Package server is the live preview HTTP server. It expands workspace
// documents against the selected mock data profile, keeps per-document
// preview sessions and pushes reload messages over a websocket when a
// document or one of its includes changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/aeonkit/internal/config"
	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/registry"
	"github.com/conneroisu/aeonkit/internal/renderer"
	"github.com/conneroisu/aeonkit/internal/scanner"
	"github.com/conneroisu/aeonkit/internal/validation"
	"github.com/conneroisu/aeonkit/internal/version"
	"github.com/conneroisu/aeonkit/internal/watcher"
)

// Options configures a Server.
type Options struct {
	Config *config.Config
	// Root is the workspace directory served. Defaults to the working directory.
	Root string
	// Profiles is the mock data manager. When nil one is built from the
	// configured custom profiles.
	Profiles *mockdata.Manager
	// Generator fills referenced fields missing from the profile.
	Generator *mockdata.Generator
	Logger    logging.Logger
}

// Server serves previews of the documents under one workspace root.
type Server struct {
	cfg       *config.Config
	root      string
	engine    *renderer.Engine
	profiles  *mockdata.Manager
	generator *mockdata.Generator
	registry  *registry.DocumentRegistry
	scanner   *scanner.WorkspaceScanner
	metrics   *Metrics
	sessions  *sessions
	hub       *Hub
	logger    logging.Logger

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	watcher      *watcher.FileWatcher
	shutdownOnce sync.Once
}

// New creates a preview server.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, aeonerrors.NewConfigError(aeonerrors.ErrCodeConfigInvalid, "server requires a configuration")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	profiles := opts.Profiles
	if profiles == nil {
		profiles, err = mockdata.NewManager(opts.Config.MockData.Profiles)
		if err != nil {
			return nil, fmt.Errorf("loading mock data profiles: %w", err)
		}
		if err := profiles.SetProfile(opts.Config.Preview.Profile); err != nil {
			return nil, err
		}
	}

	reg := registry.NewDocumentRegistry()
	metrics := NewMetrics()

	return &Server{
		cfg:  opts.Config,
		root: root,
		engine: renderer.New(renderer.Options{
			SearchPaths: opts.Config.Preview.IncludeSearchPaths,
			Logger:      logger,
		}),
		profiles:  profiles,
		generator: opts.Generator,
		registry:  reg,
		scanner:   scanner.NewWorkspaceScanner(root, reg, logger),
		metrics:   metrics,
		sessions:  newSessions(),
		hub:       NewHub(metrics, logger.WithComponent("websocket")),
		logger:    logger.WithComponent("server"),
	}, nil
}

// Registry returns the document registry the server keeps current.
func (s *Server) Registry() *registry.DocumentRegistry {
	return s.registry
}

// Handler returns the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.logRequests)
	r.Use(s.cors)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/ws", s.handleWebSocket)
	r.Get("/preview/*", s.handlePreview)

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Get("/preview/*", s.handlePreviewJSON)
		r.Get("/profiles", s.handleProfiles)
		r.Post("/profiles", s.handleSelectProfile)
		r.Post("/fields", s.handleSetField)
		r.Delete("/fields", s.handleResetFields)
		r.Get("/sessions", s.handleSessions)
	})

	return r
}

// Start scans the workspace, starts the reload hub and the file watcher,
// then serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.scanner.Scan(ctx); err != nil {
		s.logger.Warn(ctx, err, "Initial scan failed")
	}

	go s.hub.Run(ctx)

	if s.cfg.Preview.AutoRefreshOnSave {
		if err := s.setupFileWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "File watcher disabled")
		}
	}

	addr := s.cfg.Addr()

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "addr", "http://"+addr, "root", s.root)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the watcher and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		fw := s.watcher
		server := s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Stopping file watcher")
			}
		}
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.HTMLFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddHandler(s.handleFileChange)

	if err := fw.AddRecursive(s.root); err != nil {
		fw.Stop()
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
	return nil
}

// handleFileChange rescans changed documents and asks every preview of the
// document, or of a document including it, to reload.
func (s *Server) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	targets := make(map[string]bool)

	for _, event := range events {
		s.logger.Debug(ctx, "File changed", "path", event.Path, "type", event.Type.String())

		if event.Type == watcher.EventTypeDeleted {
			s.registry.Remove(event.Path)
		} else if _, err := s.scanner.ScanFile(event.Path); err != nil {
			s.logger.Warn(ctx, err, "Failed to rescan file", "path", event.Path)
		}

		targets[s.relative(event.Path)] = true
		for _, doc := range s.registry.Dependents(event.Path) {
			targets[doc.RelativePath] = true
		}
	}

	for target := range targets {
		s.hub.Broadcast(UpdateMessage{Type: MessageReload, Target: target})
	}
	return nil
}

func (s *Server) relative(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// resolveDocument maps a URL path onto an HTML file under the root.
func (s *Server) resolveDocument(rel string) (string, string, error) {
	return validation.WorkspaceDocument(s.root, rel)
}

// render expands one document with the current profile data and the
// document session's overrides. Every call uses a fresh processing context.
func (s *Server) render(ctx context.Context, rel string) (string, *renderer.Result, error) {
	path, doc, err := s.resolveDocument(rel)
	if err != nil {
		return "", nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return doc, nil, aeonerrors.NewIOError(aeonerrors.ErrCodeFileNotFound, "reading "+doc, err)
	}

	sess := s.sessions.get(doc)
	data := s.profiles.CurrentData()
	data.Merge(sess.snapshot())

	res, err := s.engine.Preview(ctx, string(content), data, renderer.PreviewOptions{
		DocumentPath:  path,
		WorkspaceRoot: s.root,
		Minify:        s.cfg.Preview.Minify,
		Generator:     s.generator,
	})
	s.metrics.ObserveExpansion(res, err)
	if err != nil {
		return doc, nil, err
	}

	sess.record(res)
	if len(res.Errors) > 0 {
		s.logger.Debug(ctx, "Preview has tag errors", "document", doc, "errors", len(res.Errors))
	}
	return doc, res, nil
}

func (s *Server) themeCSS() string {
	if s.cfg.Preview.Theme == "" {
		return ""
	}
	theme, ok := s.cfg.Theme(s.cfg.Preview.Theme)
	if !ok {
		return ""
	}
	return theme.CSS
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.registry.Count() == 0 {
		if _, err := s.scanner.Scan(r.Context()); err != nil {
			s.logger.Warn(r.Context(), err, "Workspace scan failed")
		}
	}

	page := IndexPage(documentRows(s.registry.All()), s.profiles.CurrentProfile(), s.profiles.ProfileNames())
	templ.Handler(page).ServeHTTP(w, r)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.registry.Count() == 0 {
		if _, err := s.scanner.Scan(r.Context()); err != nil {
			s.logger.Warn(r.Context(), err, "Workspace scan failed")
		}
	}
	s.writeJSON(w, http.StatusOK, s.registry.All())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, res, err := s.render(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	templ.Handler(PreviewPage(doc, res, s.themeCSS())).ServeHTTP(w, r)
}

// previewResponse is the JSON form of a preview.
type previewResponse struct {
	Document string `json:"document"`
	Profile  string `json:"profile"`
	*renderer.Result
}

func (s *Server) handlePreviewJSON(w http.ResponseWriter, r *http.Request) {
	doc, res, err := s.render(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, previewResponse{
		Document: doc,
		Profile:  s.profiles.CurrentProfile(),
		Result:   res,
	})
}

type profilesResponse struct {
	Current   string                 `json:"current"`
	Profiles  []string               `json:"profiles"`
	Overrides map[string]interface{} `json:"overrides"`
}

func (s *Server) profilesState() profilesResponse {
	return profilesResponse{
		Current:   s.profiles.CurrentProfile(),
		Profiles:  s.profiles.ProfileNames(),
		Overrides: s.profiles.Overrides().Map(),
	}
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.profilesState())
}

type selectProfileRequest struct {
	Profile string `json:"profile"`
}

func (s *Server) handleSelectProfile(w http.ResponseWriter, r *http.Request) {
	var req selectProfileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.profiles.SetProfile(req.Profile); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Profile selected", "profile", req.Profile)
	s.hub.Broadcast(UpdateMessage{Type: MessageReload})
	s.writeJSON(w, http.StatusOK, s.profilesState())
}

// setFieldRequest overrides one mock field. With a document the override is
// scoped to that document's session, otherwise it applies to every preview.
type setFieldRequest struct {
	Document string      `json:"document,omitempty"`
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "Field name is required", http.StatusBadRequest)
		return
	}
	if value, ok := req.Value.(string); ok {
		req.Value = validation.SanitizeInput(value)
	}

	if req.Document == "" {
		s.profiles.UpdateField(req.Name, req.Value)
		s.hub.Broadcast(UpdateMessage{Type: MessageReload})
		s.writeJSON(w, http.StatusOK, s.profiles.Overrides())
		return
	}

	_, doc, err := s.resolveDocument(req.Document)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	overrides := s.sessions.get(doc).setField(req.Name, req.Value)
	s.hub.Broadcast(UpdateMessage{Type: MessageReload, Target: doc})
	s.writeJSON(w, http.StatusOK, overrides)
}

// handleResetFields drops the overrides of one document session, or the
// profile-wide overrides when no document is given.
func (s *Server) handleResetFields(w http.ResponseWriter, r *http.Request) {
	doc := r.URL.Query().Get("document")
	if doc == "" {
		if err := s.profiles.SetProfile(s.profiles.CurrentProfile()); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.hub.Broadcast(UpdateMessage{Type: MessageReload})
		w.WriteHeader(http.StatusNoContent)
		return
	}

	doc = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(doc)), "/")
	if !s.sessions.reset(doc) {
		s.writeError(w, r, aeonerrors.NewNotFoundError("ERR_SESSION_NOT_FOUND", "no preview session for "+doc))
		return
	}
	s.hub.Broadcast(UpdateMessage{Type: MessageReload, Target: doc})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.all())
}

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"registry": map[string]interface{}{"status": "healthy", "documents": s.registry.Count()},
			"sessions": map[string]interface{}{"status": "healthy", "count": s.sessions.len()},
			"clients":  map[string]interface{}{"status": "healthy", "count": s.hub.ClientCount()},
			"profile":  map[string]interface{}{"status": "healthy", "current": s.profiles.CurrentProfile()},
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(context.Background(), err, "Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var aeonErr *aeonerrors.AeonError
	switch {
	case aeonerrors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &aeonErr) && aeonErr.Type == aeonerrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", "path", r.URL.Path)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start).String())
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *Server) isAllowedOrigin(origin string) bool {
	return validation.OriginAllowed(origin, s.cfg.Server.AllowedOrigins)
}
