package spec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehabterra/apidocs/internal/document"
	"gopkg.in/yaml.v3"
)

const (
	keyPaths   = "paths"
	keyInfo    = "info"
	keyServers = "servers"

	extensionPrefix = "x-"

	reasonEmpty        = "document is empty"
	reasonWantMapping  = "is a %s, want mapping"
	reasonWantSequence = "is a %s, want sequence"
	reasonDuplicateID  = "endpoint id %q already used by %s %s"
)

var idReplacer = strings.NewReplacer("{", "", "}", "", "/", "_")

// EndpointID derives the endpoint id: the uppercased method followed by the
// path with braces removed and slashes turned into underscores.
func EndpointID(method, path string) string {
	return strings.ToUpper(method) + idReplacer.Replace(path)
}

// DefaultSummary is the summary used when an operation declares none.
func DefaultSummary(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Extract walks a decoded document and builds its ParsedSpec. It performs no
// IO; failures are *document.MalformedDocumentError values.
func Extract(root *yaml.Node) (*ParsedSpec, error) {
	doc := document.Resolve(root)
	if document.IsNull(doc) {
		return nil, document.Malformed("", reasonEmpty, 0)
	}
	if doc.Kind != yaml.MappingNode {
		return nil, document.Malformed("", fmt.Sprintf(reasonWantMapping, document.KindName(doc)), doc.Line)
	}

	endpoints, err := extractEndpoints(document.Lookup(doc, keyPaths))
	if err != nil {
		return nil, err
	}

	info, err := extractInfo(document.Lookup(doc, keyInfo))
	if err != nil {
		return nil, err
	}

	servers, err := extractServers(doc)
	if err != nil {
		return nil, err
	}

	return &ParsedSpec{
		Info:      info,
		Servers:   servers,
		Endpoints: endpoints,
		raw:       root,
	}, nil
}

func extractEndpoints(paths *yaml.Node) ([]Endpoint, error) {
	endpoints := []Endpoint{}
	if document.IsNull(paths) {
		return endpoints, nil
	}
	paths = document.Resolve(paths)
	if paths.Kind != yaml.MappingNode {
		return nil, document.Malformed(keyPaths, fmt.Sprintf(reasonWantMapping, document.KindName(paths)), paths.Line)
	}

	seen := make(map[string]Endpoint)
	for _, pair := range document.Pairs(paths) {
		path := pair.Key.Value
		if strings.HasPrefix(path, extensionPrefix) {
			continue
		}
		location := keyPaths + "." + path

		item := pair.Value
		if document.IsNull(item) {
			continue
		}
		item = document.Resolve(item)
		if item.Kind != yaml.MappingNode {
			return nil, document.Malformed(location, fmt.Sprintf(reasonWantMapping, document.KindName(item)), item.Line)
		}

		for _, method := range Methods {
			op := document.Lookup(item, method)
			if document.IsNull(op) {
				continue
			}

			ep, err := newEndpoint(path, method, op, location+"."+method)
			if err != nil {
				return nil, err
			}

			if prev, dup := seen[ep.ID]; dup {
				return nil, document.Malformed(location+"."+method,
					fmt.Sprintf(reasonDuplicateID, ep.ID, prev.Method, prev.Path), document.Resolve(op).Line)
			}
			seen[ep.ID] = ep
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints, nil
}

func newEndpoint(path, method string, op *yaml.Node, location string) (Endpoint, error) {
	op = document.Resolve(op)
	if op.Kind != yaml.MappingNode {
		return Endpoint{}, document.Malformed(location, fmt.Sprintf(reasonWantMapping, document.KindName(op)), op.Line)
	}

	var fields operationFields
	if err := op.Decode(&fields); err != nil {
		return Endpoint{}, decodeFailure(location, op, err)
	}

	summary := fields.Summary
	if summary == "" {
		summary = DefaultSummary(method, path)
	}

	return Endpoint{
		ID:          EndpointID(method, path),
		Path:        path,
		Method:      strings.ToUpper(method),
		Summary:     summary,
		Description: fields.Description,
		OperationID: fields.OperationID,
		Tags:        fields.Tags,
		Parameters:  fields.Parameters,
		RequestBody: fields.RequestBody,
		Responses:   fields.Responses,
	}, nil
}

func extractInfo(n *yaml.Node) (Info, error) {
	info := Info{Title: DefaultTitle, Version: DefaultVersion}
	if document.IsNull(n) {
		return info, nil
	}
	n = document.Resolve(n)
	if n.Kind != yaml.MappingNode {
		return info, document.Malformed(keyInfo, fmt.Sprintf(reasonWantMapping, document.KindName(n)), n.Line)
	}

	var fields infoFields
	if err := n.Decode(&fields); err != nil {
		return info, decodeFailure(keyInfo, n, err)
	}
	if fields.Title != "" {
		info.Title = fields.Title
	}
	if fields.Version != "" {
		info.Version = fields.Version
	}
	info.Description = fields.Description
	return info, nil
}

// extractServers returns the declared servers, or one server synthesized
// from the Swagger 2.0 host/schemes/basePath keys when none are declared.
func extractServers(doc *yaml.Node) ([]Server, error) {
	servers := []Server{}

	if n := document.Lookup(doc, keyServers); !document.IsNull(n) {
		n = document.Resolve(n)
		if n.Kind != yaml.SequenceNode {
			return nil, document.Malformed(keyServers, fmt.Sprintf(reasonWantSequence, document.KindName(n)), n.Line)
		}
		if err := n.Decode(&servers); err != nil {
			return nil, decodeFailure(keyServers, n, err)
		}
		return servers, nil
	}

	var host swaggerHostFields
	if err := doc.Decode(&host); err != nil {
		return nil, decodeFailure("", doc, err)
	}
	if host.Host == "" {
		return servers, nil
	}

	scheme := DefaultScheme
	if len(host.Schemes) > 0 && host.Schemes[0] != "" {
		scheme = host.Schemes[0]
	}
	return append(servers, Server{URL: scheme + "://" + host.Host + host.BasePath}), nil
}

func decodeFailure(location string, n *yaml.Node, err error) error {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		return document.Malformed(location, strings.Join(te.Errors, "; "), n.Line)
	}
	return document.Malformed(location, err.Error(), n.Line)
}
