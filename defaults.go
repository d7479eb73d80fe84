package tiptop

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// defaultsYAML is the bundled defaults catalogue: one mapping per section,
// holding default values plus catalogue-only annotations (description,
// required_keywords) that never reach the service.
//
//go:embed defaults.yaml
var defaultsYAML []byte

// catalogue-only keys stripped when building a document
var catalogueKeys = map[string]bool{
	"description":       true,
	"required_keywords": true,
}

var defaultsOnce sync.Once
var defaultsDoc *Document
var defaultsErr error

// DefaultDocument builds a document from the bundled defaults catalogue,
// preserving the catalogue's section and key order and stripping the
// annotation keys. The catalogue is parsed once per process; every call
// returns an independent copy.
func DefaultDocument() (*Document, error) {
	defaultsOnce.Do(func() {
		defaultsDoc, defaultsErr = parseCatalogue(defaultsYAML)
	})
	if defaultsErr != nil {
		return nil, defaultsErr
	}
	return defaultsDoc.Clone(), nil
}

// parseCatalogue walks the YAML document node by node rather than
// unmarshalling into a map, so the catalogue's ordering survives.
func parseCatalogue(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("tiptop: defaults catalogue: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, fmt.Errorf("tiptop: defaults catalogue: unexpected document structure")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tiptop: defaults catalogue: top level is not a mapping")
	}

	doc := NewDocument()
	for i := 0; i+1 < len(top.Content); i += 2 {
		sectionName := top.Content[i].Value
		sectionNode := top.Content[i+1]
		if sectionNode.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(sectionNode.Content); j += 2 {
			key := sectionNode.Content[j].Value
			if catalogueKeys[key] {
				continue
			}
			v, err := valueFromNode(sectionNode.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("tiptop: defaults catalogue: %s.%s: %w", sectionName, key, err)
			}
			doc.Set(sectionName, key, v)
		}
	}
	return doc, nil
}

func valueFromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Value{}, err
			}
			return Bool(b), nil
		case "!!int":
			var i int64
			if err := n.Decode(&i); err != nil {
				return Value{}, err
			}
			return Int(i), nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return Value{}, err
			}
			return Float(f), nil
		default:
			return String(n.Value), nil
		}
	case yaml.SequenceNode:
		elems := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := valueFromNode(c)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return List(elems...), nil
	}
	return Value{}, fmt.Errorf("unsupported node kind %d", n.Kind)
}
