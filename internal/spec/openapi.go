package spec

import (
	"github.com/ehabterra/apidocs/internal/document"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTitle   = "API Documentation"
	DefaultVersion = "1.0.0"
	DefaultScheme  = "http"
)

// Methods lists the recognized operation keys in the order they are tested
// on every path item.
var Methods = []string{"get", "post", "put", "delete", "patch", "options", "head"}

// ParsedSpec is the normalized view of one document. It is never mutated
// after Extract returns it.
type ParsedSpec struct {
	Info      Info             `json:"info" yaml:"info"`
	Servers   []Server         `json:"servers" yaml:"servers"`
	Endpoints []Endpoint       `json:"endpoints" yaml:"endpoints"`
	Dialect   document.Dialect `json:"dialect,omitzero" yaml:"dialect,omitempty"`

	raw *yaml.Node
}

// Info represents the document summary.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Server represents a base URL the API is served from.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Endpoint is one (path, method) operation.
type Endpoint struct {
	ID          string         `json:"id" yaml:"id"`
	Path        string         `json:"path" yaml:"path"`
	Method      string         `json:"method" yaml:"method"`
	Summary     string         `json:"summary" yaml:"summary"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID string         `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  document.Value `json:"parameters,omitzero" yaml:"parameters,omitempty"`
	RequestBody document.Value `json:"requestBody,omitzero" yaml:"requestBody,omitempty"`
	Responses   document.Value `json:"responses,omitzero" yaml:"responses,omitempty"`
}

// HasRequestBody reports whether the source operation declares a body.
func (e Endpoint) HasRequestBody() bool { return !e.RequestBody.IsZero() }

// Raw returns the decoded source document.
func (p *ParsedSpec) Raw() *yaml.Node { return p.raw }

// BaseURL is the first server URL, or empty when the document has none.
func (p *ParsedSpec) BaseURL() string {
	if len(p.Servers) == 0 {
		return ""
	}
	return p.Servers[0].URL
}

// Endpoint looks an endpoint up by id.
func (p *ParsedSpec) Endpoint(id string) (Endpoint, bool) {
	for _, ep := range p.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// WithDialect returns a copy of p carrying d.
func (p *ParsedSpec) WithDialect(d document.Dialect) *ParsedSpec {
	cp := *p
	cp.Dialect = d
	return &cp
}

// operationFields lists the operation keys the extractor reads. Absent keys
// keep their zero value and are defaulted in one place by newEndpoint.
type operationFields struct {
	Summary     string         `yaml:"summary"`
	Description string         `yaml:"description"`
	OperationID string         `yaml:"operationId"`
	Tags        []string       `yaml:"tags"`
	Parameters  document.Value `yaml:"parameters"`
	RequestBody document.Value `yaml:"requestBody"`
	Responses   document.Value `yaml:"responses"`
}

type infoFields struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// swaggerHostFields are the Swagger 2.0 keys used to synthesize a server.
type swaggerHostFields struct {
	Host     string   `yaml:"host"`
	BasePath string   `yaml:"basePath"`
	Schemes  []string `yaml:"schemes"`
}
