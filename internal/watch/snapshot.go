package watch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

type fileState struct {
	modTime time.Time
	size    int64
}

// snapshot maps slash-separated paths relative to the watch root to their
// state.
type snapshot map[string]fileState

func (s snapshot) equal(o snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		w, ok := o[k]
		if !ok || !v.modTime.Equal(w.modTime) || v.size != w.size {
			return false
		}
	}
	return true
}

// scanner walks a root directory, honoring .gitignore files unless
// noGitignore is set.
type scanner struct {
	root        string
	noGitignore bool
	// skip holds absolute paths never included, such as the output file.
	skip map[string]struct{}
}

func (sc *scanner) scan() (snapshot, error) {
	snap := snapshot{}
	if err := sc.walk(sc.root, nil, nil, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// readGitignorePatterns reads the .gitignore in dir; domain is dir relative
// to the root, split into components.
func readGitignorePatterns(dir string, domain []string) []gitignore.Pattern {
	b, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns
}

func (sc *scanner) walk(dir string, domain []string, inherited []gitignore.Pattern, snap snapshot) error {
	patterns := inherited
	if !sc.noGitignore {
		if own := readGitignorePatterns(dir, domain); len(own) > 0 {
			patterns = append(append([]gitignore.Pattern{}, inherited...), own...)
		}
	}
	var matcher gitignore.Matcher
	if len(patterns) > 0 {
		matcher = gitignore.NewMatcher(patterns)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		name := ent.Name()
		if name == ".git" {
			continue
		}
		p := filepath.Join(dir, name)
		if _, ok := sc.skip[p]; ok {
			continue
		}
		comps := append(append([]string{}, domain...), name)
		if matcher != nil && matcher.Match(comps, ent.IsDir()) {
			continue
		}
		if ent.IsDir() {
			if err := sc.walk(p, comps, patterns, snap); err != nil {
				return err
			}
			continue
		}
		info, err := ent.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		snap[strings.Join(comps, "/")] = fileState{modTime: info.ModTime(), size: info.Size()}
	}
	return nil
}
