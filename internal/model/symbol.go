package model

// SymbolKind restricts UnitType to the subset that participates in the
// reference graph (§4.3: "restricted to kinds that participate").
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolEnum      SymbolKind = "enum"
	SymbolStruct    SymbolKind = "struct"
	SymbolTrait     SymbolKind = "trait"
	SymbolImpl      SymbolKind = "impl"
)

// SymbolDefinition is a named entity the reference graph operates on.
type SymbolDefinition struct {
	ID            string
	Kind          SymbolKind
	Name          string
	FilePath      string
	StartLine     int
	EndLine       int
	Signature     string
	Docstring     string
	ParentID      *string // enclosing class/struct for methods
	IsExported    bool
	Language      string
	PageRankScore float64
}

// ReferenceKind enumerates the reference-site classifications §4.3 queries
// for via tree-sitter capture patterns.
type ReferenceKind string

const (
	RefCall        ReferenceKind = "call"
	RefTypeUsage   ReferenceKind = "type_usage"
	RefImport      ReferenceKind = "import"
	RefExtends     ReferenceKind = "extends"
	RefImplements  ReferenceKind = "implements"
	RefFieldAccess ReferenceKind = "field_access"
)

// SymbolReference is an edge from an enclosing symbol to a textual target,
// resolved or not. Per the data model invariant, at most one record exists
// per (from, to_name, kind) — duplicates are merged by the extractor.
type SymbolReference struct {
	FromSymbolID string
	ToSymbolName string
	ToSymbolID   *string // nil until resolved
	Kind         ReferenceKind
	FilePath     string
	Line         int
	IsResolved   bool
}

// Key returns the dedup key (from, to_name, kind) used to merge duplicate
// reference records emitted at the same call site.
func (r *SymbolReference) Key() [3]string {
	return [3]string{r.FromSymbolID, r.ToSymbolName, string(r.Kind)}
}
