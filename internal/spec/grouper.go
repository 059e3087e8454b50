package spec

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// DefaultGroup collects endpoints that carry no tags.
const DefaultGroup = "General"

// TagGroup is one named group of endpoints.
type TagGroup struct {
	Name      string     `json:"name" yaml:"name"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// TagGroups maps tag names to endpoints, iterating in the order each tag was
// first seen. An endpoint with several tags is listed under each of them, so
// Total may exceed the number of grouped endpoints.
type TagGroups struct {
	groups []TagGroup
	index  map[string]int
}

// GroupByTag partitions endpoints by tag, keeping their relative order within
// every group.
func GroupByTag(endpoints []Endpoint) *TagGroups {
	g := &TagGroups{index: make(map[string]int)}

	for _, ep := range endpoints {
		tags := ep.Tags
		if len(tags) == 0 {
			tags = []string{DefaultGroup}
		}

		added := make(map[string]bool, len(tags))
		for _, tag := range tags {
			if added[tag] {
				continue
			}
			added[tag] = true
			g.add(tag, ep)
		}
	}
	return g
}

func (g *TagGroups) add(tag string, ep Endpoint) {
	i, ok := g.index[tag]
	if !ok {
		i = len(g.groups)
		g.index[tag] = i
		g.groups = append(g.groups, TagGroup{Name: tag})
	}
	g.groups[i].Endpoints = append(g.groups[i].Endpoints, ep)
}

// Len returns the number of groups.
func (g *TagGroups) Len() int { return len(g.groups) }

// Total returns the number of entries across all groups.
func (g *TagGroups) Total() int {
	n := 0
	for _, grp := range g.groups {
		n += len(grp.Endpoints)
	}
	return n
}

// Names returns group names in display order.
func (g *TagGroups) Names() []string {
	names := make([]string, len(g.groups))
	for i, grp := range g.groups {
		names[i] = grp.Name
	}
	return names
}

// Get returns the endpoints of the named group.
func (g *TagGroups) Get(name string) ([]Endpoint, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.groups[i].Endpoints, true
}

// Groups returns the groups in display order.
func (g *TagGroups) Groups() []TagGroup {
	out := make([]TagGroup, len(g.groups))
	copy(out, g.groups)
	return out
}

// MarshalJSON encodes the groups as an object whose keys keep display order.
func (g *TagGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, grp := range g.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(grp.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(grp.Endpoints)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the groups as an ordered mapping.
func (g *TagGroups) MarshalYAML() (any, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, grp := range g.groups {
		var val yaml.Node
		if err := val.Encode(grp.Endpoints); err != nil {
			return nil, err
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: grp.Name},
			&val,
		)
	}
	return m, nil
}
