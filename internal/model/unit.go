// Package model defines the data model shared by every subsystem: code
// units, symbols, references, documents, file state, and learned weights.
// These are plain structs; persistence and indexing live in internal/tracker,
// internal/symbolgraph, and internal/docindex respectively.
package model

// UnitType enumerates the syntactic region kinds a CodeUnit may represent.
type UnitType string

const (
	UnitFile      UnitType = "file"
	UnitModule    UnitType = "module"
	UnitClass     UnitType = "class"
	UnitInterface UnitType = "interface"
	UnitTypeDecl  UnitType = "type" // Go/TS type alias or declaration
	UnitEnum      UnitType = "enum"
	UnitTrait     UnitType = "trait"
	UnitImpl      UnitType = "impl"
	UnitFunction  UnitType = "function"
	UnitMethod    UnitType = "method"
	UnitStruct    UnitType = "struct"
	UnitBlock     UnitType = "block"
)

// Visibility mirrors the three-level scheme §4.2 derives per language.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// UnitMetadata carries the language-derived flags attached to a CodeUnit.
type UnitMetadata struct {
	IsAsync      bool
	IsExported   bool
	Visibility   Visibility
	Decorators   []string
	ImportsUsed  []string
}

// CodeUnit is a tree-sitter-identified syntactic region promoted to a
// first-class entity (file, class, method, function, ...). See spec §3 and
// invariant I1 (hierarchy integrity) in §8.
type CodeUnit struct {
	ID         string
	UnitType   UnitType
	Name       *string // nullable for anonymous units
	FilePath   string
	FileHash   string
	StartLine  int // 1-indexed inclusive
	EndLine    int // 1-indexed inclusive
	ParentID   *string
	Depth      int
	Language   string
	Content    string
	Signature  string
	Docstring  string
	Metadata   UnitMetadata
}

// IsRoot reports whether this unit is a file's depth-0 root.
func (c *CodeUnit) IsRoot() bool {
	return c.ParentID == nil && c.Depth == 0
}

// Contains reports whether line falls within this unit's span, inclusive.
func (c *CodeUnit) Contains(line int) bool {
	return line >= c.StartLine && line <= c.EndLine
}

// ContainsUnit reports whether other's span lies within this unit's span,
// the child-containment half of invariant I1.
func (c *CodeUnit) ContainsUnit(other *CodeUnit) bool {
	return other.StartLine >= c.StartLine && other.EndLine <= c.EndLine
}
