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

// Package engine wires the document loader, the endpoint extractor and the
// dialect probe into a single load call used by the CLI, the viewer and the
// MCP server.
package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ehabterra/apidocs/internal/document"
	"github.com/ehabterra/apidocs/internal/metrics"
	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/projectdiscovery/gologger"
)

const (
	// Default values for document loading
	DefaultRoot        = ""
	DefaultHTTPTimeout = time.Duration(0)
	DefaultMaxBytes    = int64(32 << 20)
	CopyrightNotice    = "apidocs - Copyright 2025 Ehab Terra"
	LicenseNotice      = "Licensed under the Apache License 2.0. See LICENSE and NOTICE."
)

// EngineConfig holds configuration for the load engine
type EngineConfig struct {
	// Root is the directory filesystem locators are resolved against. When
	// empty, relative locators use the working directory and absolute ones
	// are read as given.
	Root string
	// BaseURL, when set, resolves relative locators over HTTP instead of the
	// filesystem.
	BaseURL string
	// HTTPTimeout bounds a remote fetch; zero means no timeout.
	HTTPTimeout time.Duration
	// MaxBytes caps the size of a fetched document.
	MaxBytes int64
	// Client overrides the HTTP client built from HTTPTimeout.
	Client *http.Client
	// Metrics receives load outcomes; nil disables recording.
	Metrics *metrics.Metrics
}

// DefaultEngineConfig returns a new EngineConfig with default values
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Root:        DefaultRoot,
		BaseURL:     "",
		HTTPTimeout: DefaultHTTPTimeout,
		MaxBytes:    DefaultMaxBytes,
	}
}

// Engine loads documents into ParsedSpec values. It is safe for concurrent
// use.
type Engine struct {
	config *EngineConfig
	loader *document.Loader
}

// NewEngine creates a new Engine with the given configuration
func NewEngine(config *EngineConfig) *Engine {
	defaultConfig := DefaultEngineConfig()

	if config != nil {
		// Merge provided config with defaults
		if config.MaxBytes == 0 {
			config.MaxBytes = defaultConfig.MaxBytes
		}
	} else {
		config = defaultConfig
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.HTTPTimeout}
	}

	return &Engine{
		config: config,
		loader: &document.Loader{
			Root:     config.Root,
			BaseURL:  config.BaseURL,
			Client:   client,
			MaxBytes: config.MaxBytes,
		},
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig { return *e.config }

// Load retrieves the document named by locator, decodes it and extracts its
// summary and endpoints. The returned error is a *document.RetrievalError,
// *document.DecodeError or *document.MalformedDocumentError.
func (e *Engine) Load(ctx context.Context, locator string) (*spec.ParsedSpec, error) {
	start := time.Now()
	parsed, err := e.load(ctx, locator)

	outcome := Outcome(err)
	count := 0
	if parsed != nil {
		count = len(parsed.Endpoints)
	}
	e.config.Metrics.RecordLoad(outcome, time.Since(start), count)

	if err != nil {
		gologger.Warning().Str("locator", locator).Str("outcome", outcome).Msgf("load failed: %v", err)
		return nil, err
	}
	gologger.Verbose().Str("locator", locator).Str("dialect", parsed.Dialect.String()).
		Msgf("loaded %q with %d endpoints", parsed.Info.Title, count)
	return parsed, nil
}

func (e *Engine) load(ctx context.Context, locator string) (*spec.ParsedSpec, error) {
	data, err := e.loader.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	root, err := document.Decode(locator, data)
	if err != nil {
		return nil, err
	}

	parsed, err := spec.Extract(root)
	if err != nil {
		return nil, err
	}
	return parsed.WithDialect(document.DetectDialect(data)), nil
}

// Outcome classifies a load error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.Is(err, document.ErrRetrieval):
		return metrics.OutcomeRetrieval
	case errors.Is(err, document.ErrDecode):
		return metrics.OutcomeDecode
	case errors.Is(err, document.ErrMalformedDocument):
		return metrics.OutcomeMalformed
	}
	return metrics.OutcomeOther
}
