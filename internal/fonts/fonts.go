// Package fonts enumerates the font families visible to the typesetting engine.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/hzqd/m2p/internal/args"
	"github.com/hzqd/m2p/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/sfnt"
)

// EnvFontPaths holds extra font directories separated by the OS list separator.
const EnvFontPaths = "M2P_FONT_PATHS"

// Variant is one face found on disk.
type Variant struct {
	Family string
	Style  string
	Path   string
	// Index is the face position inside a collection file.
	Index int
}

// Family groups the variants sharing a family name.
type Family struct {
	Name     string
	Variants []Variant
}

// Lister prints the discovered families to Out.
type Lister struct {
	Out io.Writer
	// ConfigPaths come from fonts.paths in the configuration.
	ConfigPaths []string
	// Env looks up EnvFontPaths; nil disables it.
	Env func(string) string
	// SystemDirs are searched after every other directory.
	SystemDirs []string
}

// New returns a Lister searching cfg.Paths, the environment and the platform
// font directories.
func New(out io.Writer, cfg config.Fonts) *Lister {
	return &Lister{
		Out:         out,
		ConfigPaths: cfg.Paths,
		Env:         os.Getenv,
		SystemDirs:  platformDirs(),
	}
}

// Fonts prints one family per line in sorted order. With Variants set every
// variant follows its family as "- style: path".
func (l *Lister) Fonts(ctx context.Context, cmd *args.FontsCommand) error {
	families, err := l.Discover(ctx, cmd.FontPaths)
	if err != nil {
		return err
	}
	for _, fam := range families {
		if _, err := fmt.Fprintln(l.Out, fam.Name); err != nil {
			return err
		}
		if !cmd.Variants {
			continue
		}
		for _, v := range fam.Variants {
			path := v.Path
			if v.Index > 0 {
				path = fmt.Sprintf("%s#%d", path, v.Index)
			}
			if _, err := fmt.Fprintf(l.Out, "- %s: %s\n", v.Style, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Discover scans extra, the environment, the configured paths and the system
// directories, in that order. Missing directories are skipped; files that do
// not parse as fonts are logged at debug and skipped.
func (l *Lister) Discover(ctx context.Context, extra []string) ([]Family, error) {
	logger := zerolog.Ctx(ctx)
	byName := map[string]*Family{}
	for _, dir := range l.searchDirs(extra) {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable font path")
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isFontFile(path) {
				return nil
			}
			variants, err := readVariants(path)
			if err != nil {
				logger.Debug().Err(err).Str("path", path).Msg("skipping font file")
				return nil
			}
			for _, v := range variants {
				fam, ok := byName[v.Family]
				if !ok {
					fam = &Family{Name: v.Family}
					byName[v.Family] = fam
				}
				fam.Variants = append(fam.Variants, v)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan font directory %s: %w", dir, err)
		}
	}

	out := make([]Family, 0, len(byName))
	for _, fam := range byName {
		sort.SliceStable(fam.Variants, func(i, j int) bool {
			return fam.Variants[i].Style < fam.Variants[j].Style
		})
		out = append(out, *fam)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (l *Lister) searchDirs(extra []string) []string {
	var dirs []string
	dirs = append(dirs, extra...)
	if l.Env != nil {
		if v := l.Env(EnvFontPaths); v != "" {
			dirs = append(dirs, filepath.SplitList(v)...)
		}
	}
	dirs = append(dirs, l.ConfigPaths...)
	dirs = append(dirs, l.SystemDirs...)

	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, d := range dirs {
		if d == "" {
			continue
		}
		d = filepath.Clean(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return false
}

func readVariants(path string) ([]Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	var buf sfnt.Buffer
	out := make([]Variant, 0, coll.NumFonts())
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			return nil, err
		}
		family := firstName(f, &buf, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
		if family == "" {
			continue
		}
		style := firstName(f, &buf, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
		if style == "" {
			style = "Regular"
		}
		out = append(out, Variant{Family: family, Style: style, Path: path, Index: i})
	}
	return out, nil
}

func firstName(f *sfnt.Font, buf *sfnt.Buffer, ids ...sfnt.NameID) string {
	for _, id := range ids {
		if s, err := f.Name(buf, id); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func platformDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Library/Fonts",
			"/System/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	case "windows":
		dirs := []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
