package codec

import (
	"bytes"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/actemplate/pkg/types"
)

// decodeYAML works on the node tree rather than on maps so that mapping
// order survives.
func decodeYAML(data []byte) (types.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.Value{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind == 0 {
		return types.Null(), nil
	}
	return fromNode(&doc)
}

func fromNode(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return types.Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]types.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return types.Value{}, err
			}
			items = append(items, v)
		}
		return types.Array(items...), nil
	case yaml.MappingNode:
		obj := types.NewObject()
		if err := addMembers(obj, n); err != nil {
			return types.Value{}, err
		}
		return types.ObjectValue(obj), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return types.Value{}, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

// addMembers copies the pairs of a mapping node into obj. Merge keys (<<)
// contribute the members of the referenced mappings without overriding
// keys written explicitly.
func addMembers(obj *types.Object, n *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		key, err := fromNode(k)
		if err != nil {
			return err
		}
		val, err := fromNode(v)
		if err != nil {
			return err
		}
		obj.Set(types.FormatText(key), val)
	}

	for _, m := range merges {
		if m.Kind == yaml.AliasNode {
			m = m.Alias
		}
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = m.Content
		}
		for _, src := range sources {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
			}
			merged := types.NewObject()
			if err := addMembers(merged, src); err != nil {
				return err
			}
			for _, mem := range merged.Members() {
				if !obj.Has(mem.Key) {
					obj.Set(mem.Key, mem.Value)
				}
			}
		}
	}
	return nil
}

func fromScalar(n *yaml.Node) (types.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return types.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return types.Value{}, err
		}
		return types.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return types.Value{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return types.Value{}, fmt.Errorf("line %d: %s is not representable in JSON", n.Line, n.Value)
		}
		return types.Number(f), nil
	default:
		return types.String(n.Value), nil
	}
}

func encodeYAML(v types.Value, indent int) ([]byte, error) {
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(toNode(v)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(v types.Value) *yaml.Node {
	switch v.Kind() {
	case types.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", fmt.Sprint(b))
	case types.KindNumber:
		n, _ := v.AsNumber()
		tag := "!!float"
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			tag = "!!int"
		}
		return scalar(tag, types.FormatNumber(n))
	case types.KindString:
		s, _ := v.AsString()
		return scalar("!!str", s)
	case types.KindArray:
		items, _ := v.AsArray()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, toNode(item))
		}
		return n
	case types.KindObject:
		obj, _ := v.AsObject()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range obj.Members() {
			n.Content = append(n.Content, scalar("!!str", m.Key), toNode(m.Value))
		}
		return n
	default:
		return scalar("!!null", "null")
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
