// Package query prints the elements of a document that match a selector,
// optionally filtered by a Lua predicate.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
)

// Source produces the raw JSON array of elements matching selector.
type Source interface {
	QueryJSON(ctx context.Context, common args.CommonArgs, selector string) ([]byte, error)
}

// ErrNotOne is returned by --one when the result does not hold exactly one
// element.
type ErrNotOne struct{ Count int }

func (e ErrNotOne) Error() string {
	return fmt.Sprintf("expected exactly one element, found %d", e.Count)
}

// Runner serializes query results to Out.
type Runner struct {
	Source  Source
	Out     io.Writer
	Sandbox config.Sandbox
}

// Query runs cmd and writes the serialized result followed by a newline.
func (r *Runner) Query(ctx context.Context, cmd *args.QueryCommand) error {
	raw, err := r.Source.QueryJSON(ctx, cmd.Common, cmd.Selector)
	if err != nil {
		return err
	}
	elems, err := decodeElements(raw)
	if err != nil {
		return err
	}
	if cmd.Filter != "" {
		if elems, err = r.filter(cmd.Filter, elems); err != nil {
			return err
		}
	}
	if cmd.Field != "" {
		elems = extractField(elems, cmd.Field)
	}

	var result any = elems
	if cmd.One {
		if len(elems) != 1 {
			return ErrNotOne{Count: len(elems)}
		}
		result = elems[0]
	}
	out, err := serialize(result, cmd.Format, cmd.Pretty)
	if err != nil {
		return err
	}
	_, err = r.Out.Write(out)
	return err
}

// decodeElements keeps numbers as json.Number so integers wider than a
// float64 mantissa survive.
func decodeElements(raw []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, fmt.Errorf("invalid query output: %v", err)
	}
	return elems, nil
}

func (r *Runner) filter(code string, elems []any) ([]any, error) {
	f, err := newFilter(code, r.Sandbox)
	if err != nil {
		return nil, err
	}
	kept := make([]any, 0, len(elems))
	for i, el := range elems {
		ok, err := f.keep(el, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, el)
		}
	}
	return kept, nil
}

// extractField keeps the value of field for the elements that have it.
func extractField(elems []any, field string) []any {
	out := make([]any, 0, len(elems))
	for _, el := range elems {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m[field]; ok {
			out = append(out, v)
		}
	}
	return out
}

func serialize(v any, format args.SerializationFormat, pretty bool) ([]byte, error) {
	switch format {
	case args.SerializeYAML:
		return encodeYAML(v)
	case args.SerializeJSON, "":
		var (
			b   []byte
			err error
		)
		if pretty {
			b, err = json.MarshalIndent(v, "", "  ")
		} else {
			b, err = json.Marshal(v)
		}
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported serialization format: %s", format)
	}
}
