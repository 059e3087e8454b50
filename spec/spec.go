// Package spec exposes a stable public API for loading OpenAPI and Swagger
// documents and grouping their endpoints, re-exported from the internal
// packages.
package spec

import (
	"context"

	"github.com/ehabterra/apidocs/internal/catalog"
	"github.com/ehabterra/apidocs/internal/document"
	"github.com/ehabterra/apidocs/internal/engine"
	intspec "github.com/ehabterra/apidocs/internal/spec"
)

// Re-export core document types
type ParsedSpec = intspec.ParsedSpec
type Info = intspec.Info
type Server = intspec.Server
type Endpoint = intspec.Endpoint
type TagGroups = intspec.TagGroups
type TagGroup = intspec.TagGroup
type Dialect = document.Dialect

// Re-export configuration types
type EngineConfig = engine.EngineConfig
type Catalog = catalog.Catalog
type CatalogOption = catalog.Option

// Re-export the error taxonomy
type RetrievalError = document.RetrievalError
type DecodeError = document.DecodeError
type MalformedDocumentError = document.MalformedDocumentError

var (
	ErrRetrieval         = document.ErrRetrieval
	ErrDecode            = document.ErrDecode
	ErrMalformedDocument = document.ErrMalformedDocument
	ErrEndpointNotFound  = intspec.ErrEndpointNotFound
)

// DefaultGroup is the group of endpoints without tags.
const DefaultGroup = intspec.DefaultGroup

// Load retrieves, decodes and extracts the document named by locator with
// the default engine configuration.
func Load(ctx context.Context, locator string) (*ParsedSpec, error) {
	return engine.NewEngine(nil).Load(ctx, locator)
}

// LoadWithConfig is Load with an explicit engine configuration.
func LoadWithConfig(ctx context.Context, config *EngineConfig, locator string) (*ParsedSpec, error) {
	return engine.NewEngine(config).Load(ctx, locator)
}

// GroupByTag groups endpoints by tag in first-seen order.
func GroupByTag(endpoints []Endpoint) *TagGroups { return intspec.GroupByTag(endpoints) }

// EndpointID derives the identifier of the operation at method and path.
func EndpointID(method, path string) string { return intspec.EndpointID(method, path) }

// CurlCommand renders a curl invocation for ep against baseURL.
func CurlCommand(baseURL string, ep Endpoint) string { return intspec.CurlCommand(baseURL, ep) }

// Default catalog configuration
func DefaultCatalog() *Catalog { return catalog.DefaultCatalog() }

// LoadCatalog loads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) { return catalog.LoadCatalog(path) }
