// Package symbolgraph implements the Symbol & Reference Extractor (C3) and
// the Reference Graph & PageRank component (C4): it narrows CodeUnits to
// the subset that participates in the reference graph, captures reference
// sites via each language's tree-sitter reference query, resolves them by
// name, and scores every symbol by PageRank over the resulting graph.
package symbolgraph

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/semindex/internal/model"
)

// goReceiverPattern pulls the receiver type name out of a Go method
// signature, e.g. "func (c *Calculator) Multiply(...)" -> "Calculator".
var goReceiverPattern = regexp.MustCompile(`^func\s*\(\s*\w*\s+\*?([A-Za-z_]\w*)\s*\)`)

// symbolKindFor narrows a UnitType to the SymbolKind subset the reference
// graph operates on; false for kinds (file, block) that never participate.
func symbolKindFor(u model.UnitType) (model.SymbolKind, bool) {
	switch u {
	case model.UnitFunction:
		return model.SymbolFunction, true
	case model.UnitMethod:
		return model.SymbolMethod, true
	case model.UnitClass:
		return model.SymbolClass, true
	case model.UnitInterface:
		return model.SymbolInterface, true
	case model.UnitTypeDecl:
		return model.SymbolType, true
	case model.UnitEnum:
		return model.SymbolEnum, true
	case model.UnitStruct:
		return model.SymbolStruct, true
	case model.UnitTrait:
		return model.SymbolTrait, true
	case model.UnitImpl:
		return model.SymbolImpl, true
	default:
		return "", false
	}
}

// ExtractSymbols narrows a file's CodeUnits to SymbolDefinitions. For
// methods whose CodeUnit parent is not itself a class/struct/interface/impl
// unit — Go's receiver methods, which never lexically nest under their
// receiver type — parent_id is instead resolved by matching the method's
// receiver type name (parsed out of its signature) against a sibling
// struct/interface in the same file, per spec §4.3's "parent_id points to
// a class/struct in the same file".
func ExtractSymbols(units []model.CodeUnit) []model.SymbolDefinition {
	byID := make(map[string]*model.CodeUnit, len(units))
	for i := range units {
		byID[units[i].ID] = &units[i]
	}

	typesByName := map[string]string{} // name -> unit id, for struct/class/interface units
	for i := range units {
		switch units[i].UnitType {
		case model.UnitStruct, model.UnitClass, model.UnitInterface, model.UnitTrait, model.UnitImpl:
			if units[i].Name != nil {
				typesByName[*units[i].Name] = units[i].ID
			}
		}
	}

	var out []model.SymbolDefinition
	for i := range units {
		u := units[i]
		kind, ok := symbolKindFor(u.UnitType)
		if !ok {
			continue
		}
		name := ""
		if u.Name != nil {
			name = *u.Name
		}

		def := model.SymbolDefinition{
			ID:         u.ID,
			Kind:       kind,
			Name:       name,
			FilePath:   u.FilePath,
			StartLine:  u.StartLine,
			EndLine:    u.EndLine,
			Signature:  u.Signature,
			Docstring:  u.Docstring,
			IsExported: u.Metadata.IsExported,
			Language:   u.Language,
		}

		parentID := resolveParent(u, byID, typesByName)
		def.ParentID = parentID
		out = append(out, def)
	}
	return out
}

func resolveParent(u model.CodeUnit, byID map[string]*model.CodeUnit, typesByName map[string]string) *string {
	if u.ParentID != nil {
		if parent, ok := byID[*u.ParentID]; ok {
			if _, isSymbolKind := symbolKindFor(parent.UnitType); isSymbolKind {
				id := parent.ID
				return &id
			}
		}
	}
	if u.UnitType != model.UnitMethod {
		return nil
	}
	m := goReceiverPattern.FindStringSubmatch(u.Signature)
	if m == nil {
		return nil
	}
	recv := strings.TrimPrefix(m[1], "*")
	if id, ok := typesByName[recv]; ok {
		return &id
	}
	return nil
}
