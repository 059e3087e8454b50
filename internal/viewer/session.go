// Package viewer serves catalog documents, their endpoints and tag groups over
// HTTP, and keeps per-client browsing sessions.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ehabterra/apidocs/internal/metrics"
	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/projectdiscovery/gologger"
)

// Loader turns a locator into a parsed document. *engine.Engine satisfies it.
type Loader interface {
	Load(ctx context.Context, locator string) (*spec.ParsedSpec, error)
}

// Status is the load state of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

var (
	ErrNoDocument    = errors.New("no document loaded")
	ErrSessionClosed = errors.New("session closed")
)

// Session tracks one client's current selection. Only the most recent
// selection can commit its result; loads started by earlier selections are
// dropped when they finish.
type Session struct {
	ID string

	loader  Loader
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	generation uint64
	closed     bool
	locator    string
	status     Status
	doc        *spec.ParsedSpec
	groups     *spec.TagGroups
	loadErr    error
	selected   string
	notes      map[string]string
	lastUsed   time.Time
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID               string     `json:"id"`
	Locator          string     `json:"locator,omitempty"`
	Status           Status     `json:"status"`
	Error            string     `json:"error,omitempty"`
	Info             *spec.Info `json:"info,omitempty"`
	Dialect          string     `json:"dialect,omitempty"`
	BaseURL          string     `json:"baseUrl,omitempty"`
	EndpointCount    int        `json:"endpointCount"`
	SelectedEndpoint string     `json:"selectedEndpoint,omitempty"`
}

// NewSession creates an idle session. Loads run under a context that is
// cancelled by Close.
func NewSession(id string, loader Loader, m *metrics.Metrics) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:       id,
		loader:   loader,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
		status:   StatusIdle,
		notes:    make(map[string]string),
		lastUsed: time.Now(),
	}
}

// Select starts loading locator and makes it the current selection. The
// previous document, endpoint selection and notes are dropped immediately.
// The returned channel is closed once this load has finished, whether its
// result was committed or discarded.
func (s *Session) Select(locator string) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(done)
		return done
	}
	s.generation++
	gen := s.generation
	s.locator = locator
	s.status = StatusLoading
	s.doc = nil
	s.groups = nil
	s.loadErr = nil
	s.selected = ""
	s.notes = make(map[string]string)
	s.mu.Unlock()

	go func() {
		defer close(done)
		doc, err := s.loader.Load(s.ctx, locator)
		s.commit(gen, locator, doc, err)
	}()
	return done
}

func (s *Session) commit(gen uint64, locator string, doc *spec.ParsedSpec, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.metrics.RecordDiscard()
		gologger.Debug().Str("session", s.ID).Str("locator", locator).Msgf("discarding superseded load")
		return
	}

	if err != nil {
		s.status = StatusFailed
		s.loadErr = err
		return
	}
	s.status = StatusReady
	s.doc = doc
	s.groups = spec.GroupByTag(doc.Endpoints)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:               s.ID,
		Locator:          s.locator,
		Status:           s.status,
		SelectedEndpoint: s.selected,
	}
	if s.loadErr != nil {
		snap.Error = s.loadErr.Error()
	}
	if s.doc != nil {
		info := s.doc.Info
		snap.Info = &info
		snap.Dialect = s.doc.Dialect.String()
		snap.BaseURL = s.doc.BaseURL()
		snap.EndpointCount = len(s.doc.Endpoints)
	}
	return snap
}

// Err returns the error of the last committed load, if it failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Document returns the committed document and its groups.
func (s *Session) Document() (*spec.ParsedSpec, *spec.TagGroups, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, nil, ErrNoDocument
	}
	return s.doc, s.groups, nil
}

// Endpoint looks up an endpoint of the committed document.
func (s *Session) Endpoint(id string) (*spec.ParsedSpec, spec.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, err := s.endpointLocked(id)
	if err != nil {
		return nil, spec.Endpoint{}, err
	}
	return s.doc, ep, nil
}

// EndpointView is an endpoint with its note and selection state, all taken
// from the same committed document.
type EndpointView struct {
	Document *spec.ParsedSpec
	Endpoint spec.Endpoint
	Note     string
	Selected bool
}

// EndpointView reads endpoint id, its note and whether it is selected under
// a single lock, so a concurrent Select cannot mix two documents.
func (s *Session) EndpointView(id string) (EndpointView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, err := s.endpointLocked(id)
	if err != nil {
		return EndpointView{}, err
	}
	return EndpointView{
		Document: s.doc,
		Endpoint: ep,
		Note:     s.noteLocked(ep),
		Selected: s.selected == id,
	}, nil
}

// SelectEndpoint marks id as the endpoint on display.
func (s *Session) SelectEndpoint(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.endpointLocked(id); err != nil {
		return err
	}
	s.selected = id
	return nil
}

// Note returns the note for endpoint id. Without a stored note it falls back
// to the endpoint description, then its summary.
func (s *Session) Note(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, err := s.endpointLocked(id)
	if err != nil {
		return "", err
	}
	return s.noteLocked(ep), nil
}

// SetNote stores a note for endpoint id. Notes live only as long as the
// current document.
func (s *Session) SetNote(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.endpointLocked(id); err != nil {
		return err
	}
	s.notes[id] = text
	return nil
}

// endpointLocked must be called with s.mu held.
func (s *Session) endpointLocked(id string) (spec.Endpoint, error) {
	if s.doc == nil {
		return spec.Endpoint{}, ErrNoDocument
	}
	ep, ok := s.doc.Endpoint(id)
	if !ok {
		return spec.Endpoint{}, fmt.Errorf("%w: %s", spec.ErrEndpointNotFound, id)
	}
	return ep, nil
}

func (s *Session) noteLocked(ep spec.Endpoint) string {
	if note, ok := s.notes[ep.ID]; ok {
		return note
	}
	if ep.Description != "" {
		return ep.Description
	}
	return ep.Summary
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// idleSince reports when the session was last used. Sessions with a load in
// flight count as in use.
func (s *Session) idleSince(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return now
	}
	return s.lastUsed
}

// Close cancels in-flight loads. Results that arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
