// Package pathutil provides the include/exclude glob matching shared by
// the file scanner (C1) and the watcher (C12), lifted out of
// standardbeagle-lci/internal/indexing/pipeline_types.go's FileScanner
// (compilePatterns/shouldExcludeFast/shouldIncludeFast) into a standalone,
// reusable matcher.
package pathutil

import "github.com/bmatcuk/doublestar/v4"

// Matcher holds a project's compiled include/exclude glob pattern lists.
// Patterns are doublestar globs (`**/*.go`, `vendor/**`); an unparseable
// pattern is treated as a non-match rather than failing the whole scan,
// matching the teacher's own "bad pattern shouldn't break scanning"
// posture.
type Matcher struct {
	exclude []string
	include []string
}

// New compiles exclude/include pattern lists into a Matcher. Patterns
// themselves are not pre-parsed (doublestar compiles internally per
// call, exactly as the teacher's FileScanner does); New only copies the
// slices so later mutation of the caller's config does not retroactively
// change matching behavior.
func New(exclude, include []string) *Matcher {
	m := &Matcher{
		exclude: append([]string(nil), exclude...),
		include: append([]string(nil), include...),
	}
	return m
}

// ShouldExclude reports whether relPath (slash-separated, relative to the
// project root) matches any exclude pattern.
func (m *Matcher) ShouldExclude(relPath string) bool {
	for _, pattern := range m.exclude {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ShouldInclude reports whether relPath matches the include list. An
// empty include list means "include everything not excluded", matching
// the teacher's shouldIncludeFast default.
func (m *Matcher) ShouldInclude(relPath string) bool {
	if len(m.include) == 0 {
		return true
	}
	for _, pattern := range m.include {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Allowed reports whether relPath should be processed: included and not
// excluded. Exclusion wins when a path matches both lists, matching the
// scanner's exclude-then-include check order.
func (m *Matcher) Allowed(relPath string) bool {
	if m.ShouldExclude(relPath) {
		return false
	}
	return m.ShouldInclude(relPath)
}
