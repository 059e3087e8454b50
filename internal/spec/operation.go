package spec

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ehabterra/apidocs/internal/document"
	"gopkg.in/yaml.v3"
)

// ErrEndpointNotFound is returned when a path/method pair is not in a document.
var ErrEndpointNotFound = errors.New("endpoint not found")

// SingleOperation returns a copy of the raw document whose paths section
// holds only the given operation. Path level keys that apply to every
// operation (parameters, servers, summary, description) are kept; the other
// top-level sections are copied unchanged so references still resolve.
func SingleOperation(raw *yaml.Node, path, method string) (*yaml.Node, error) {
	method = strings.ToLower(method)
	doc := document.Resolve(raw)
	item := document.Lookup(document.Lookup(doc, keyPaths), path)
	if !slices.Contains(Methods, method) || document.IsNull(document.Lookup(item, method)) {
		return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, strings.ToUpper(method), path)
	}
	item = document.Resolve(item)

	filteredItem := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pair := range document.Pairs(item) {
		key := pair.Key.Value
		if slices.Contains(Methods, key) && key != method {
			continue
		}
		filteredItem.Content = append(filteredItem.Content, cloneNode(pair.Key), cloneNode(pair.Value))
	}

	paths := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	paths.Content = append(paths.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: path},
		filteredItem,
	)

	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pair := range document.Pairs(doc) {
		if pair.Key.Value == keyPaths {
			out.Content = append(out.Content, cloneNode(pair.Key), paths)
			continue
		}
		out.Content = append(out.Content, cloneNode(pair.Key), cloneNode(pair.Value))
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{out}}, nil
}

// cloneNode deep-copies n with aliases and merge keys expanded, so the copy
// shares no state with the source tree.
func cloneNode(n *yaml.Node) *yaml.Node {
	n = document.Resolve(n)
	if n == nil {
		return nil
	}
	cp := *n
	cp.Anchor = ""
	cp.Alias = nil
	if n.Kind == yaml.MappingNode {
		pairs := document.Pairs(n)
		cp.Content = make([]*yaml.Node, 0, 2*len(pairs))
		for _, pair := range pairs {
			cp.Content = append(cp.Content, cloneNode(pair.Key), cloneNode(pair.Value))
		}
		return &cp
	}
	if len(n.Content) > 0 {
		cp.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			cp.Content[i] = cloneNode(c)
		}
	}
	return &cp
}
