// Package mcpserver exposes the document catalog as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ehabterra/apidocs/internal/catalog"
	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/projectdiscovery/gologger"
)

const (
	ServerName = "apidocs"

	ToolListDocuments    = "list_documents"
	ToolDescribeDocument = "describe_document"
	ToolGetEndpoint      = "get_endpoint"

	argName = "name"
	argID   = "id"
)

// Loader turns a locator into a parsed document.
type Loader interface {
	Load(ctx context.Context, locator string) (*spec.ParsedSpec, error)
}

// Server wraps the MCP server with the catalog tools
type Server struct {
	loader    Loader
	catalog   *catalog.Catalog
	mcpServer *server.MCPServer
}

// DocumentSummary is the describe_document result.
type DocumentSummary struct {
	Name          string         `json:"name"`
	Info          spec.Info      `json:"info"`
	Dialect       string         `json:"dialect"`
	BaseURL       string         `json:"baseUrl,omitempty"`
	EndpointCount int            `json:"endpointCount"`
	Groups        []GroupSummary `json:"groups"`
}

// GroupSummary is one tag group with compact endpoint entries.
type GroupSummary struct {
	Name      string            `json:"name"`
	Endpoints []EndpointSummary `json:"endpoints"`
}

type EndpointSummary struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary"`
}

// EndpointResult is the get_endpoint result.
type EndpointResult struct {
	Endpoint spec.Endpoint `json:"endpoint"`
	URL      string        `json:"url"`
	Curl     string        `json:"curl"`
}

// New creates the MCP server and registers its tools.
func New(loader Loader, cat *catalog.Catalog, version string) *Server {
	if cat == nil {
		cat = catalog.DefaultCatalog()
	}
	s := &Server{
		loader:  loader,
		catalog: cat,
		mcpServer: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcpServer.AddTool(mcp.NewTool(ToolListDocuments,
		mcp.WithDescription("List the API documents available in the catalog"),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool(ToolDescribeDocument,
		mcp.WithDescription("Load a catalog document and list its endpoints grouped by tag"),
		mcp.WithString(argName,
			mcp.Required(),
			mcp.Description("Catalog entry name, as returned by list_documents"),
		),
	), s.handleDescribeDocument)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetEndpoint,
		mcp.WithDescription("Show one endpoint of a catalog document with a ready-to-run curl command"),
		mcp.WithString(argName,
			mcp.Required(),
			mcp.Description("Catalog entry name"),
		),
		mcp.WithString(argID,
			mcp.Required(),
			mcp.Description("Endpoint id, e.g. GET_users_id"),
		),
	), s.handleGetEndpoint)

	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// Start serves the tools on stdin/stdout until the input closes.
func (s *Server) Start() error {
	gologger.Info().Msgf("Serving %d catalog documents over MCP stdio", len(s.catalog.Options))
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.catalog.Options)
}

func (s *Server) handleDescribeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, ok := stringArg(request, argName)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("missing required argument %q", argName)), nil
	}
	doc, errResult := s.load(ctx, name)
	if errResult != nil {
		return errResult, nil
	}

	groups := spec.GroupByTag(doc.Endpoints)
	summary := DocumentSummary{
		Name:          name,
		Info:          doc.Info,
		Dialect:       doc.Dialect.String(),
		BaseURL:       doc.BaseURL(),
		EndpointCount: len(doc.Endpoints),
		Groups:        make([]GroupSummary, 0, groups.Len()),
	}
	for _, g := range groups.Groups() {
		gs := GroupSummary{Name: g.Name, Endpoints: make([]EndpointSummary, len(g.Endpoints))}
		for i, ep := range g.Endpoints {
			gs.Endpoints[i] = EndpointSummary{ID: ep.ID, Method: ep.Method, Path: ep.Path, Summary: ep.Summary}
		}
		summary.Groups = append(summary.Groups, gs)
	}
	return jsonResult(summary)
}

func (s *Server) handleGetEndpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, ok := stringArg(request, argName)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("missing required argument %q", argName)), nil
	}
	id, ok := stringArg(request, argID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("missing required argument %q", argID)), nil
	}

	doc, errResult := s.load(ctx, name)
	if errResult != nil {
		return errResult, nil
	}
	ep, found := doc.Endpoint(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("endpoint %s not found in %s", id, name)), nil
	}

	base := doc.BaseURL()
	return jsonResult(EndpointResult{
		Endpoint: ep,
		URL:      spec.EndpointURL(base, ep),
		Curl:     spec.CurlCommand(base, ep),
	})
}

// load resolves a catalog name and loads its document. Failures are reported
// as tool errors rather than protocol errors.
func (s *Server) load(ctx context.Context, name string) (*spec.ParsedSpec, *mcp.CallToolResult) {
	entry, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	doc, err := s.loader.Load(ctx, entry.Locator)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to load %s: %v", name, err))
	}
	return doc, nil
}

func stringArg(request mcp.CallToolRequest, key string) (string, bool) {
	v, ok := request.GetArguments()[key].(string)
	return v, ok && v != ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
