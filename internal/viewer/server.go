// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ehabterra/apidocs/internal/catalog"
	"github.com/ehabterra/apidocs/internal/document"
	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/projectdiscovery/gologger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 8080

	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20

	formatYAML      = "yaml"
	contentTypeJSON = "application/json"
	contentTypeYAML = "application/yaml"
)

// ServerConfig holds configuration for the viewer server
type ServerConfig struct {
	Host       string
	Port       int
	EnableCORS bool
	// StaticDir is served under /specs/ when set.
	StaticDir string
	// AllowAnyLocator lets clients load locators that are not in the catalog.
	AllowAnyLocator bool
}

// Server handles HTTP requests for catalog documents and sessions
type Server struct {
	config   *ServerConfig
	loader   Loader
	catalog  *catalog.Catalog
	sessions *Sessions
	gatherer prometheus.Gatherer
	started  time.Time
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GroupsResponse lists the tag groups of a document in display order.
type GroupsResponse struct {
	Names  []string        `json:"names"`
	Total  int             `json:"total"`
	Groups *spec.TagGroups `json:"groups"`
}

// EndpointDetail is an endpoint with its request helpers.
type EndpointDetail struct {
	Endpoint spec.Endpoint `json:"endpoint"`
	URL      string        `json:"url"`
	Curl     string        `json:"curl"`
	Note     string        `json:"note"`
	Selected bool          `json:"selected"`
}

type selectionRequest struct {
	Name    string `json:"name"`
	Locator string `json:"locator"`
}

type noteRequest struct {
	Note string `json:"note"`
}

// NewServer creates a new viewer server. sessions share loader; gatherer may
// be nil, in which case /metrics is not mounted.
func NewServer(config *ServerConfig, loader Loader, cat *catalog.Catalog, sessions *Sessions, gatherer prometheus.Gatherer) *Server {
	if config == nil {
		config = &ServerConfig{}
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if cat == nil {
		cat = catalog.DefaultCatalog()
	}
	if sessions == nil {
		sessions = NewSessions(loader, nil)
	}
	return &Server{
		config:   config,
		loader:   loader,
		catalog:  cat,
		sessions: sessions,
		gatherer: gatherer,
		started:  time.Now(),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// SetupRoutes builds the HTTP handler.
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/specs", s.handleSpec)
		r.Get("/specs/groups", s.handleSpecGroups)

		r.Post("/sessions", s.handleOpenSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleCloseSession)
			r.Put("/selection", s.handleSelect)
			r.Get("/groups", s.handleSessionGroups)
			r.Put("/endpoints/{eid}/select", s.handleSelectEndpoint)
			r.Get("/endpoints/{eid}", s.handleEndpoint)
			r.Get("/endpoints/{eid}/document", s.handleEndpointDocument)
			r.Get("/notes/{eid}", s.handleNote)
			r.Put("/notes/{eid}", s.handleSetNote)
		})
	})

	if s.config.StaticDir != "" {
		r.Handle("/specs/*", http.StripPrefix("/specs/", http.FileServer(http.Dir(s.config.StaticDir))))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down and closes
// every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		gologger.Info().Msgf("Viewer listening on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.sessions.CloseAll()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.CloseAll()
	if err != nil {
		return fmt.Errorf("failed to shut down viewer: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
		"sessions":  s.sessions.Len(),
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog)
}

// handleSpec loads a document without a session.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadFromQuery(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSpecGroups(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadFromQuery(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newGroupsResponse(spec.GroupByTag(doc.Endpoints)))
}

func (s *Server) loadFromQuery(w http.ResponseWriter, r *http.Request) (*spec.ParsedSpec, bool) {
	q := r.URL.Query()
	locator, err := s.resolveLocator(q.Get("name"), q.Get("locator"))
	if err != nil {
		s.writeFailure(w, err)
		return nil, false
	}
	doc, err := s.loader.Load(r.Context(), locator)
	if err != nil {
		s.writeFailure(w, err)
		return nil, false
	}
	return doc, true
}

// handleOpenSession creates a session and starts loading the catalog's
// initial document.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Open()
	if initial, ok := s.catalog.Initial(); ok {
		sess.Select(initial.Locator)
	}
	s.writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "sid")); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	locator, err := s.resolveLocator(req.Name, req.Locator)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	sess.Select(locator)
	s.writeJSON(w, http.StatusAccepted, sess.Snapshot())
}

func (s *Server) handleSessionGroups(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_, groups, err := sess.Document()
	if err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}
	s.writeJSON(w, http.StatusOK, newGroupsResponse(groups))
}

func (s *Server) handleSelectEndpoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.SelectEndpoint(chi.URLParam(r, "eid")); err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleEndpoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := sess.EndpointView(chi.URLParam(r, "eid"))
	if err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}

	base := view.Document.BaseURL()
	s.writeJSON(w, http.StatusOK, EndpointDetail{
		Endpoint: view.Endpoint,
		URL:      spec.EndpointURL(base, view.Endpoint),
		Curl:     spec.CurlCommand(base, view.Endpoint),
		Note:     view.Note,
		Selected: view.Selected,
	})
}

// handleEndpointDocument returns the document reduced to one operation.
func (s *Server) handleEndpointDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, ep, err := sess.Endpoint(chi.URLParam(r, "eid"))
	if err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}

	single, err := spec.SingleOperation(doc.Raw(), ep.Path, ep.Method)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if r.URL.Query().Get("format") == formatYAML {
		var buf bytes.Buffer
		if err := spec.EncodeYAML(&buf, single); err != nil {
			s.writeFailure(w, err)
			return
		}
		s.writeResponse(w, buf.Bytes(), contentTypeYAML)
		return
	}
	s.writeJSON(w, http.StatusOK, document.NewValue(single))
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	note, err := sess.Note(chi.URLParam(r, "eid"))
	if err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}
	s.writeJSON(w, http.StatusOK, noteRequest{Note: note})
}

func (s *Server) handleSetNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := sess.SetNote(chi.URLParam(r, "eid"), req.Note); err != nil {
		s.writeFailure(w, sessionError(sess, err))
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeFailure(w, err)
		return nil, false
	}
	return sess, true
}

// resolveLocator maps a catalog name or a locator to the locator to load.
// Locators outside the catalog are refused unless AllowAnyLocator is set.
func (s *Server) resolveLocator(name, locator string) (string, error) {
	if name != "" {
		o, err := s.catalog.Lookup(name)
		if err != nil {
			return "", err
		}
		return o.Locator, nil
	}
	if locator == "" {
		return "", errMissingLocator
	}
	if s.config.AllowAnyLocator {
		return locator, nil
	}
	for _, o := range s.catalog.Options {
		if o.Locator == locator {
			return locator, nil
		}
	}
	return "", fmt.Errorf("%w: %s", catalog.ErrNotFound, locator)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		s.writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

var errMissingLocator = errors.New("name or locator is required")

// sessionError prefers the failed load over a missing document.
func sessionError(sess *Session, err error) error {
	if errors.Is(err, ErrNoDocument) {
		if loadErr := sess.Err(); loadErr != nil {
			return loadErr
		}
	}
	return err
}

// statusFor maps an error to the HTTP status reported to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMissingLocator):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, spec.ErrEndpointNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, document.ErrRetrieval):
		return http.StatusBadGateway
	case errors.Is(err, document.ErrDecode), errors.Is(err, document.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func newGroupsResponse(g *spec.TagGroups) GroupsResponse {
	return GroupsResponse{Names: g.Names(), Total: g.Total(), Groups: g}
}
