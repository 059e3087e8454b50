package document

import "gopkg.in/yaml.v3"

const (
	nullTag  = "!!null"
	mergeTag = "!!merge"
)

// Resolve unwraps document and alias nodes.
func Resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// IsNull reports whether n is missing or an explicit YAML null.
func IsNull(n *yaml.Node) bool {
	n = Resolve(n)
	if n == nil || n.Kind == 0 {
		return true
	}
	return n.Kind == yaml.ScalarNode && n.ShortTag() == nullTag
}

// Lookup returns the value stored under key in a mapping node, or nil.
// Keys brought in through merge keys are found too.
func Lookup(mapping *yaml.Node, key string) *yaml.Node {
	for _, pair := range Pairs(mapping) {
		if pair.Key.Value == key {
			return pair.Value
		}
	}
	return nil
}

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// Pairs returns the entries of a mapping node in source order. Merge keys
// (<<) are expanded in place: local keys override merged ones, and within a
// sequence of merged mappings the earlier mapping wins.
func Pairs(mapping *yaml.Node) []Pair {
	return mergedPairs(mapping, make(map[*yaml.Node]bool))
}

func mergedPairs(mapping *yaml.Node, visiting map[*yaml.Node]bool) []Pair {
	mapping = Resolve(mapping)
	if mapping == nil || mapping.Kind != yaml.MappingNode || visiting[mapping] {
		return nil
	}
	visiting[mapping] = true
	defer delete(visiting, mapping)

	local := make(map[string]bool, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if !isMerge(mapping.Content[i]) {
			local[mapping.Content[i].Value] = true
		}
	}

	out := make([]Pair, 0, len(mapping.Content)/2)
	merged := make(map[string]bool)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if !isMerge(key) {
			out = append(out, Pair{Key: key, Value: value})
			continue
		}
		for _, src := range mergeSources(value) {
			for _, pair := range mergedPairs(src, visiting) {
				if local[pair.Key.Value] || merged[pair.Key.Value] {
					continue
				}
				merged[pair.Key.Value] = true
				out = append(out, pair)
			}
		}
	}
	return out
}

func isMerge(key *yaml.Node) bool {
	return key.Kind == yaml.ScalarNode && key.ShortTag() == mergeTag
}

// mergeSources returns the mappings named by a merge value: one mapping or a
// sequence of them.
func mergeSources(n *yaml.Node) []*yaml.Node {
	n = Resolve(n)
	if n == nil {
		return nil
	}
	if n.Kind == yaml.SequenceNode {
		return n.Content
	}
	return []*yaml.Node{n}
}

// KindName names a node kind for error messages.
func KindName(n *yaml.Node) string {
	n = Resolve(n)
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "string"
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		case nullTag:
			return "null"
		}
		return "scalar"
	}
	return "nothing"
}
