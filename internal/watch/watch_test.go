package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
	"github.com/hzqd/m2p/internal/testutil"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func keys(s snapshot) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestScanner_Gitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testutil.WriteTree(dir, map[string]string{
		"doc.typ":             "= Title",
		"doc.pdf":             "%PDF",
		".gitignore":          "build/\n*.log\n",
		"build/cache.bin":     "x",
		"chapters/one.typ":    "one",
		"chapters/.gitignore": "draft.typ\n",
		"chapters/draft.typ":  "draft",
		"run.log":             "log",
		".git/HEAD":           "ref: refs/heads/main",
	}))

	cmd := &args.CompileCommand{Common: args.CommonArgs{Input: filepath.Join(dir, "doc.typ")}}
	sc, err := newScanner(cmd, false)
	require.NoError(t, err)
	snap, err := sc.scan()
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "chapters/.gitignore", "chapters/one.typ", "doc.typ"}, keys(snap))

	sc, err = newScanner(cmd, true)
	require.NoError(t, err)
	snap, err = sc.scan()
	require.NoError(t, err)
	require.Contains(t, keys(snap), "build/cache.bin")
	require.Contains(t, keys(snap), "chapters/draft.typ")
	require.NotContains(t, keys(snap), "doc.pdf")
}

func TestSnapshot_Equal(t *testing.T) {
	now := time.Now()
	a := snapshot{"a": {modTime: now, size: 1}}
	require.True(t, a.equal(snapshot{"a": {modTime: now, size: 1}}))
	require.False(t, a.equal(snapshot{"a": {modTime: now, size: 2}}))
	require.False(t, a.equal(snapshot{"b": {modTime: now, size: 1}}))
	require.False(t, a.equal(snapshot{}))
}

type signalingCompiler struct {
	compiled chan struct{}
	errs     []error
	calls    int
}

func (s *signalingCompiler) Compile(ctx context.Context, cmd *args.CompileCommand) error {
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	s.compiled <- struct{}{}
	return err
}

func waitCompile(t *testing.T, c *signalingCompiler) {
	t.Helper()
	select {
	case <-c.compiled:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for compile")
	}
}

func TestWatch_RecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.typ")
	writeFile(t, input, "= Title")

	comp := &signalingCompiler{
		compiled: make(chan struct{}, 4),
		errs:     []error{errors.New("syntax error")},
	}
	w := New(comp, config.Watch{IntervalMs: 10})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, &args.WatchCommand{CompileCommand: args.CompileCommand{Common: args.CommonArgs{Input: input}}})
	}()

	// The first compile fails; watching continues.
	waitCompile(t, comp)
	writeFile(t, input, "= Title\n\nMore text.")
	waitCompile(t, comp)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	comp := &signalingCompiler{compiled: make(chan struct{}, 1)}
	w := New(comp, config.Watch{IntervalMs: 10})
	input := filepath.Join(t.TempDir(), "missing", "doc.typ")
	err := w.Watch(context.Background(), &args.WatchCommand{CompileCommand: args.CompileCommand{Common: args.CommonArgs{Input: input}}})
	require.Error(t, err)
	require.Zero(t, comp.calls)
}
