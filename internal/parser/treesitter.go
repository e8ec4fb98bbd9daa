package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/semindex/internal/idgen"
	"github.com/standardbeagle/semindex/internal/model"
)

// ParsedTree is the parsed-tree handle shared between the unit extractor
// (C2) and the symbol/reference extractor (C3), so a file is only parsed
// once.
type ParsedTree struct {
	Tree     *tree_sitter.Tree
	Content  []byte
	Language string
	FilePath string
	FileHash string
}

// RefQuery exposes the reference query for C3 to run its own cursor over.
func (pt *ParsedTree) RefQuery() *tree_sitter.Query {
	c, ok := loaded[pt.Language]
	if !ok {
		return nil
	}
	return c.refQuery
}

// Close releases the underlying tree-sitter tree.
func (pt *ParsedTree) Close() {
	if pt.Tree != nil {
		pt.Tree.Close()
	}
}

// Parse parses source for path, inferring the language from its extension.
// Returns (nil, false, nil) for unsupported extensions — not an error, per
// spec's "unsupported extensions are skipped, not failed" ingestion rule.
func Parse(ctx context.Context, path, ext string, source []byte, fileHash string) (*ParsedTree, bool, error) {
	def, ok := registry[ext]
	if !ok {
		return nil, false, nil
	}
	if def.name == "javascript" && plainJSExts[ext] {
		if hasUnits, scanned := fastScanHasUnits(source); scanned && !hasUnits {
			return nil, false, nil
		}
	}
	c, err := compile(def)
	if err != nil {
		return nil, false, fmt.Errorf("compile grammar %s: %w", def.name, err)
	}

	p := tree_sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(c.language); err != nil {
		return nil, false, fmt.Errorf("set language %s: %w", def.name, err)
	}

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, false, fmt.Errorf("parse %s: tree-sitter returned no tree", path)
	}

	pt := &ParsedTree{
		Tree:     tree,
		Content:  source,
		Language: def.name,
		FilePath: path,
		FileHash: fileHash,
	}
	return pt, true, nil
}

type capturedUnit struct {
	kind       model.UnitType
	name       string
	node       tree_sitter.Node
	startLine  int
	endLine    int
}

// ExtractUnits runs the file's chunk query and emits the CodeUnit
// hierarchy: a root file unit at depth 0, plus one unit per capture,
// with depth/parent_id computed from line-range containment among the
// emitted units rather than the raw AST parent (spec §C2 algorithm), so
// intermediate wrapper nodes like `class_body` never appear as a level.
func ExtractUnits(pt *ParsedTree) ([]model.CodeUnit, error) {
	c, ok := loaded[pt.Language]
	if !ok {
		return nil, fmt.Errorf("language %s not compiled", pt.Language)
	}

	root := pt.Tree.RootNode()
	fileUnit := model.CodeUnit{
		ID:        idgen.CodeUnit(pt.FilePath, "", string(model.UnitFile), 1),
		UnitType:  model.UnitFile,
		FilePath:  pt.FilePath,
		FileHash:  pt.FileHash,
		StartLine: 1,
		EndLine:   int(root.EndPosition().Row) + 1,
		Depth:     0,
		Language:  pt.Language,
		Content:   string(pt.Content),
	}

	var captured []capturedUnit
	if c.chunkQuery != nil {
		qc := tree_sitter.NewQueryCursor()
		defer qc.Close()
		matches := qc.Matches(c.chunkQuery, root, pt.Content)
		captureNames := c.chunkQuery.CaptureNames()

		for {
			match := matches.Next()
			if match == nil {
				break
			}
			names := map[string]string{}
			var mainNode *tree_sitter.Node
			var mainCapture string
			for _, cap := range match.Captures {
				capName := captureNames[cap.Index]
				if strings.Contains(capName, ".") {
					node := cap.Node
					names[capName] = string(pt.Content[node.StartByte():node.EndByte()])
					continue
				}
				node := cap.Node
				mainNode = &node
				mainCapture = capName
			}
			if mainNode == nil {
				continue
			}
			kind, ok := unitKindFor(mainCapture)
			if !ok {
				continue
			}
			name := names[mainCapture+".name"]
			if name == "" {
				for k, v := range names {
					if strings.HasSuffix(k, ".name") {
						name = v
						break
					}
				}
			}
			captured = append(captured, capturedUnit{
				kind:      kind,
				name:      name,
				node:      *mainNode,
				startLine: int(mainNode.StartPosition().Row) + 1,
				endLine:   int(mainNode.EndPosition().Row) + 1,
			})
		}
	}

	units := make([]model.CodeUnit, 0, len(captured)+1)
	units = append(units, fileUnit)

	for _, cu := range captured {
		name := cu.name
		unit := model.CodeUnit{
			ID:        idgen.CodeUnit(pt.FilePath, name, string(cu.kind), cu.startLine),
			UnitType:  cu.kind,
			FilePath:  pt.FilePath,
			FileHash:  pt.FileHash,
			StartLine: cu.startLine,
			EndLine:   cu.endLine,
			Language:  pt.Language,
			Content:   string(pt.Content[cu.node.StartByte():cu.node.EndByte()]),
			Signature: extractSignature(pt.Content, &cu.node),
			Docstring: extractDocstring(pt.Content, &cu.node),
			Metadata:  unitMetadata(pt.Language, name, &cu.node, pt.Content),
		}
		if name != "" {
			n := name
			unit.Name = &n
		}
		units = append(units, unit)
	}

	assignHierarchy(units)
	return units, nil
}

func unitKindFor(capture string) (model.UnitType, bool) {
	switch capture {
	case "function":
		return model.UnitFunction, true
	case "method":
		return model.UnitMethod, true
	case "class":
		return model.UnitClass, true
	case "interface":
		return model.UnitInterface, true
	case "struct":
		return model.UnitStruct, true
	case "enum":
		return model.UnitEnum, true
	case "trait":
		return model.UnitTrait, true
	case "impl":
		return model.UnitImpl, true
	case "type":
		return model.UnitTypeDecl, true
	default:
		return "", false
	}
}

// assignHierarchy computes depth and parent_id for every non-file unit by
// finding the smallest-span unit (including the synthetic file unit) whose
// line range strictly contains it.
func assignHierarchy(units []model.CodeUnit) {
	idx := make([]int, len(units))
	for i := range units {
		idx[i] = i
	}
	// Largest span first so a unit's parent already has its final depth
	// when the unit takes parent.Depth + 1.
	sort.Slice(idx, func(a, b int) bool {
		sa := units[idx[a]].EndLine - units[idx[a]].StartLine
		sb := units[idx[b]].EndLine - units[idx[b]].StartLine
		return sa > sb
	})

	for _, i := range idx {
		u := &units[i]
		if u.UnitType == model.UnitFile {
			u.Depth = 0
			u.ParentID = nil
			continue
		}
		bestSpan := -1
		bestJ := -1
		for j := range units {
			if j == i {
				continue
			}
			p := units[j]
			if p.StartLine <= u.StartLine && p.EndLine >= u.EndLine && (p.StartLine < u.StartLine || p.EndLine > u.EndLine || p.UnitType == model.UnitFile) {
				span := p.EndLine - p.StartLine
				if bestJ == -1 || span < bestSpan {
					bestSpan = span
					bestJ = j
				}
			}
		}
		if bestJ == -1 {
			u.Depth = 1
			u.ParentID = nil
			continue
		}
		parentID := units[bestJ].ID
		u.ParentID = &parentID
		u.Depth = units[bestJ].Depth + 1
	}
}

// extractSignature takes the node up to (but excluding) its body field,
// trimming a trailing `{`; nodes with no body field (e.g. a bare type
// declaration) use the whole node text up to the first newline.
func extractSignature(content []byte, node *tree_sitter.Node) string {
	start := node.StartByte()
	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	if start >= uint(len(content)) || end > uint(len(content)) || end < start {
		return ""
	}
	sig := strings.TrimSpace(string(content[start:end]))
	sig = strings.TrimSuffix(sig, "{")
	sig = strings.TrimSuffix(sig, ":")
	lines := strings.Split(strings.TrimSpace(sig), "\n")
	if len(lines) > 6 {
		lines = lines[:6]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractDocstring walks immediately-preceding comment siblings, stripping
// each language's comment markers, and concatenates them in source order.
func extractDocstring(content []byte, node *tree_sitter.Node) string {
	var lines []string
	cur := node.PrevSibling()
	for cur != nil {
		t := cur.Kind()
		if !strings.Contains(t, "comment") {
			break
		}
		text := string(content[cur.StartByte():cur.EndByte()])
		lines = append([]string{stripCommentMarkers(text)}, lines...)
		cur = cur.PrevSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripCommentMarkers(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "///")
	s = strings.TrimPrefix(s, "//!")
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	s = strings.TrimPrefix(strings.TrimSpace(s), "*")
	return strings.TrimSpace(s)
}

func unitMetadata(language, name string, node *tree_sitter.Node, content []byte) model.UnitMetadata {
	meta := model.UnitMetadata{
		IsExported: isExported(language, name, node, content),
		Visibility: visibilityFor(language, name, node, content),
	}
	if language == "javascript" || language == "typescript" {
		meta.IsAsync = nodeTextContainsKeyword(node, content, "async")
	}
	return meta
}

func nodeTextContainsKeyword(node *tree_sitter.Node, content []byte, kw string) bool {
	start := node.StartByte()
	limit := start + 16
	if limit > uint(len(content)) {
		limit = uint(len(content))
	}
	return strings.Contains(string(content[start:limit]), kw)
}

// isExported applies each language's export convention: Go's leading
// uppercase identifier; Python's no-underscore convention; TS/JS's
// `export` ancestor/keyword; Java's `public` modifier; Rust's `pub`
// keyword. C/C++ have no source-level export concept (linkage is a
// build-system concern), so they default true like a plain header
// declaration.
func isExported(language, name string, node *tree_sitter.Node, content []byte) bool {
	switch language {
	case "go":
		if name == "" {
			return false
		}
		r := []rune(name)[0]
		return r >= 'A' && r <= 'Z'
	case "python":
		return name == "" || !strings.HasPrefix(name, "_")
	case "javascript", "typescript":
		return hasExportAncestor(node, content)
	case "java":
		return hasModifierKeyword(node, content, "public")
	case "rust":
		return hasModifierKeyword(node, content, "pub")
	default:
		return true
	}
}

func visibilityFor(language, name string, node *tree_sitter.Node, content []byte) model.Visibility {
	switch language {
	case "python":
		if strings.HasPrefix(name, "__") {
			return model.VisibilityPrivate
		}
		if strings.HasPrefix(name, "_") {
			return model.VisibilityProtected
		}
		return model.VisibilityPublic
	case "go":
		if isExported(language, name, node, content) {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	case "javascript", "typescript":
		if hasExportAncestor(node, content) {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	case "java":
		if hasModifierKeyword(node, content, "public") {
			return model.VisibilityPublic
		}
		if hasModifierKeyword(node, content, "private") {
			return model.VisibilityPrivate
		}
		if hasModifierKeyword(node, content, "protected") {
			return model.VisibilityProtected
		}
		return model.VisibilityPrivate
	case "rust":
		if hasModifierKeyword(node, content, "pub") {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	default:
		return model.VisibilityPublic
	}
}

// hasExportAncestor mirrors the teacher's JS/TS export detection: a node is
// exported if its parent is an export_statement/export_default_declaration,
// or if an `export` keyword sits among its preceding siblings (the
// `export function foo() {}` case where the grammar doesn't wrap the
// declaration in its own export node).
func hasExportAncestor(node *tree_sitter.Node, content []byte) bool {
	if node == nil {
		return false
	}
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "export_statement", "export_default_declaration", "export_clause":
		return true
	}
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child == nil {
			continue
		}
		if child.StartByte() == node.StartByte() && child.EndByte() == node.EndByte() {
			break
		}
		if string(content[child.StartByte():child.EndByte()]) == "export" {
			return true
		}
	}
	return false
}

// hasModifierKeyword looks for kw either as a direct child of node (Rust's
// bare `pub` keyword token) or inside a child "modifiers" node (Java's
// `public`/`private`/`protected` access modifiers).
func hasModifierKeyword(node *tree_sitter.Node, content []byte, kw string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		text := string(content[child.StartByte():child.EndByte()])
		if child.Kind() == "modifiers" {
			for j := uint(0); j < child.ChildCount(); j++ {
				mod := child.Child(j)
				if mod == nil {
					continue
				}
				if string(content[mod.StartByte():mod.EndByte()]) == kw {
					return true
				}
			}
			continue
		}
		if text == kw || strings.HasPrefix(text, kw+" ") || strings.HasPrefix(text, kw+"(") {
			return true
		}
	}
	return false
}
