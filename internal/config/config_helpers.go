package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if concrete(f).Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

// lookup returns the concrete value at path, or false when it is absent.
func lookup(v cue.Value, path string, want cue.Kind) (cue.Value, bool, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return cue.Value{}, false, nil
	}
	f = concrete(f)
	if f.Kind() != want {
		return cue.Value{}, false, fmt.Errorf("invalid type for field: %s (expected %s)", path, want)
	}
	return f, true, nil
}

func concrete(f cue.Value) cue.Value {
	if d, ok := f.Default(); ok {
		return d
	}
	return f
}

func optString(v cue.Value, path string, dst *string) error {
	return optDecode(v, path, cue.StringKind, dst)
}

func optInt(v cue.Value, path string, dst *int) error {
	return optDecode(v, path, cue.IntKind, dst)
}

func optBool(v cue.Value, path string, dst *bool) error {
	return optDecode(v, path, cue.BoolKind, dst)
}

func optStringList(v cue.Value, path string, dst *[]string) error {
	return optDecode(v, path, cue.ListKind, dst)
}

func optDecode(v cue.Value, path string, kind cue.Kind, dst any) error {
	f, ok, err := lookup(v, path, kind)
	if err != nil || !ok {
		return err
	}
	if err := f.Decode(dst); err != nil {
		return fmt.Errorf("invalid value for %s: %v", path, err)
	}
	return nil
}
