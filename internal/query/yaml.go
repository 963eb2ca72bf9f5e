package query

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// encodeYAML renders decoded JSON as YAML: mapping keys sorted, two-space
// indent, exactly one trailing newline.
func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(jsonNode(v))
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return append(bytes.TrimRight(buf.Bytes(), "\n"), '\n'), nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// jsonNode maps the types produced by encoding/json onto YAML nodes. Numbers
// that fit an int64 keep their literal; integral floats drop the fraction.
func jsonNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return scalar("!!null", "null")
	case bool:
		return scalar("!!bool", strconv.FormatBool(x))
	case string:
		return scalar("!!str", x)
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return scalar("!!int", x.String())
		}
		f, err := x.Float64()
		if err != nil {
			return scalar("!!str", x.String())
		}
		return jsonNode(f)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return scalar("!!int", strconv.FormatInt(int64(x), 10))
		}
		return scalar("!!float", strconv.FormatFloat(x, 'g', -1, 64))
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(x))}
		for _, el := range x {
			seq.Content = append(seq.Content, jsonNode(el))
		}
		return seq
	case map[string]any:
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range slices.Sorted(maps.Keys(x)) {
			m.Content = append(m.Content, scalar("!!str", k), jsonNode(x[k]))
		}
		return m
	default:
		n := &yaml.Node{}
		_ = n.Encode(x)
		return n
	}
}
