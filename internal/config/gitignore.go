package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignorePattern is one parsed line of a .gitignore file.
type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
}

// GitignoreParser accumulates patterns from a project's .gitignore and
// matches candidate paths against them, feeding C1's ingestion filter
// (SPEC_FULL "git-aware ignore rules").
type GitignoreParser struct {
	patterns []GitignorePattern
}

// NewGitignoreParser returns an empty parser.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore reads rootPath/.gitignore if present; a missing file is
// not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	f, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern parses and stores a single gitignore line.
func (gp *GitignoreParser) AddPattern(line string) {
	p := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	gp.patterns = append(gp.patterns, p)
}

// Match reports whether relPath (slash-separated, relative to the
// project root) is ignored. Later patterns override earlier ones, and a
// negated match un-ignores a path, matching git's own precedence rule.
func (gp *GitignoreParser) Match(relPath string, isDir bool) bool {
	ignored := false
	base := filepath.Base(relPath)
	for _, p := range gp.patterns {
		if p.Directory && !isDir {
			continue
		}
		var matched bool
		if p.Absolute {
			matched, _ = doublestar.Match(p.Pattern, relPath)
		} else {
			matched, _ = doublestar.Match(p.Pattern, base)
			if !matched {
				matched, _ = doublestar.Match("**/"+p.Pattern, relPath)
			}
		}
		if matched {
			ignored = !p.Negate
		}
	}
	return ignored
}
