package fonts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hzqd/m2p/internal/args"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func fontDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "Go-Bold.TTF"), gobold.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.otf"), []byte("not a font"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("fonts"), 0o644))
	return dir
}

func TestDiscover_GroupsVariants(t *testing.T) {
	dir := fontDir(t)
	l := &Lister{}
	families, err := l.Discover(context.Background(), []string{dir, filepath.Join(dir, "missing")})
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "Go", families[0].Name)

	var styles []string
	for _, v := range families[0].Variants {
		styles = append(styles, v.Style)
		require.Equal(t, 0, v.Index)
	}
	require.Equal(t, []string{"Bold", "Regular"}, styles)
}

func TestFonts_Output(t *testing.T) {
	dir := fontDir(t)
	var out bytes.Buffer
	l := &Lister{Out: &out}

	require.NoError(t, l.Fonts(context.Background(), &args.FontsCommand{FontPaths: []string{dir}}))
	require.Equal(t, "Go\n", out.String())

	out.Reset()
	require.NoError(t, l.Fonts(context.Background(), &args.FontsCommand{FontPaths: []string{dir}, Variants: true}))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Go", lines[0])
	require.Equal(t, "- Bold: "+filepath.Join(dir, "nested", "Go-Bold.TTF"), lines[1])
	require.Equal(t, "- Regular: "+filepath.Join(dir, "Go-Regular.ttf"), lines[2])
}

func TestSearchDirs_OrderAndDedup(t *testing.T) {
	l := &Lister{
		ConfigPaths: []string{"/cfg", "/flag/"},
		Env: func(key string) string {
			if key != EnvFontPaths {
				return ""
			}
			return strings.Join([]string{"/env/a", "", "/env/b"}, string(os.PathListSeparator))
		},
		SystemDirs: []string{"/sys", "/cfg"},
	}
	got := l.searchDirs([]string{"/flag"})
	want := []string{"/flag", "/env/a", "/env/b", "/cfg", "/sys"}
	for i := range want {
		want[i] = filepath.Clean(want[i])
	}
	require.Equal(t, want, got)
}

func TestFonts_EmptyWhenNothingFound(t *testing.T) {
	var out bytes.Buffer
	l := &Lister{Out: &out}
	require.NoError(t, l.Fonts(context.Background(), &args.FontsCommand{FontPaths: []string{t.TempDir()}}))
	require.Empty(t, out.String())
}
