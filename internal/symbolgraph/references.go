package symbolgraph

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/parser"
)

var refKindByCapture = map[string]model.ReferenceKind{
	"call":       model.RefCall,
	"import":     model.RefImport,
	"extends":    model.RefExtends,
	"implements": model.RefImplements,
	"type":       model.RefTypeUsage,
	"field":      model.RefFieldAccess,
}

// ExtractReferences runs pt's reference query and, for each capture,
// resolves the enclosing symbol by line containment among fileSymbols,
// deduplicating by (from_symbol_id, to_symbol_name, kind) per the data
// model invariant.
func ExtractReferences(pt *parser.ParsedTree, fileSymbols []model.SymbolDefinition) []model.SymbolReference {
	query := pt.RefQuery()
	if query == nil {
		return nil
	}

	sorted := make([]model.SymbolDefinition, len(fileSymbols))
	copy(sorted, fileSymbols)
	sort.Slice(sorted, func(i, j int) bool {
		return (sorted[i].EndLine - sorted[i].StartLine) < (sorted[j].EndLine - sorted[j].StartLine)
	})

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(query, pt.Tree.RootNode(), pt.Content)
	captureNames := query.CaptureNames()

	seen := map[[3]string]bool{}
	var out []model.SymbolReference

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var mainNode *tree_sitter.Node
		var mainCapture string
		names := map[string]string{}

		for _, cap := range match.Captures {
			node := cap.Node
			capName := captureNames[cap.Index]
			text := string(pt.Content[node.StartByte():node.EndByte()])
			if !strings.Contains(capName, ".") {
				mainNode = &node
				mainCapture = capName
				continue
			}
			names[capName] = text
			if mainNode == nil {
				n := node
				mainNode = &n
				mainCapture = capName[:strings.Index(capName, ".")]
			}
		}
		if mainNode == nil {
			continue
		}

		kind, ok := refKindByCapture[mainCapture]
		if !ok {
			continue
		}

		targetName := ""
		for _, suffix := range []string{".name", ".path", ".source"} {
			if v, ok := names[mainCapture+suffix]; ok {
				targetName = v
				break
			}
		}
		if targetName == "" {
			targetName = string(pt.Content[mainNode.StartByte():mainNode.EndByte()])
		}
		targetName = cleanReferenceName(targetName)
		if targetName == "" {
			continue
		}

		line := int(mainNode.StartPosition().Row) + 1
		fromID := enclosingSymbol(sorted, line)
		if fromID == "" {
			continue
		}

		key := [3]string{fromID, targetName, string(kind)}
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, model.SymbolReference{
			FromSymbolID: fromID,
			ToSymbolName: targetName,
			Kind:         kind,
			FilePath:     pt.FilePath,
			Line:         line,
		})
	}
	return out
}

// cleanReferenceName strips string-literal quoting (import paths) and
// selector/member-access chains so only the final identifier remains.
func cleanReferenceName(s string) string {
	s = strings.Trim(s, `"'`+"`")
	if i := strings.LastIndexAny(s, "./"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// enclosingSymbol returns the smallest-span symbol (already sorted
// ascending by span) whose line range contains line, or "" if none does —
// references outside any symbol (e.g. top-level imports) are dropped.
func enclosingSymbol(sortedSymbols []model.SymbolDefinition, line int) string {
	for _, s := range sortedSymbols {
		if s.StartLine <= line && line <= s.EndLine {
			return s.ID
		}
	}
	return ""
}

// ResolveReferences fills in ToSymbolID for every reference whose
// ToSymbolName matches at least one definition name in the project-wide
// index. Ambiguity is broken by: same file first, then exported symbols,
// then highest PageRankScore — the disambiguation order spec §4.3 assigns
// to name-based resolution.
func ResolveReferences(refs []model.SymbolReference, bySymbolID map[string]model.SymbolDefinition, byName map[string][]model.SymbolDefinition) []model.SymbolReference {
	out := make([]model.SymbolReference, len(refs))
	copy(out, refs)

	for i := range out {
		candidates := byName[out[i].ToSymbolName]
		if len(candidates) == 0 {
			continue
		}
		fromFile := ""
		if from, ok := bySymbolID[out[i].FromSymbolID]; ok {
			fromFile = from.FilePath
		}
		best := pickCandidate(candidates, fromFile)
		id := best.ID
		out[i].ToSymbolID = &id
		out[i].IsResolved = true
	}
	return out
}

func pickCandidate(candidates []model.SymbolDefinition, sameFile string) model.SymbolDefinition {
	best := candidates[0]
	bestScore := candidateScore(best, sameFile)
	for _, c := range candidates[1:] {
		score := candidateScore(c, sameFile)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// candidateScore ranks: same-file match highest, then exported, then
// PageRank as the final tiebreak among remaining ambiguity.
func candidateScore(c model.SymbolDefinition, sameFile string) float64 {
	score := 0.0
	if sameFile != "" && c.FilePath == sameFile {
		score += 1000
	}
	if c.IsExported {
		score += 100
	}
	score += c.PageRankScore
	return score
}
