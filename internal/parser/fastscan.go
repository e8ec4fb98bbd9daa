package parser

import (
	fastast "github.com/t14raptor/go-fast/ast"
	fastparser "github.com/t14raptor/go-fast/parser"
)

// plainJSExts are the extensions go-fast's ECMAScript 5 parser can
// actually attempt — it understands neither ES6 modules nor TypeScript,
// so .jsx/.ts/.tsx never reach fastScanHasUnits.
var plainJSExts = map[string]bool{".js": true, ".mjs": true, ".cjs": true}

// fastScanHasUnits runs go-fast's lightweight parser over source as a
// pre-scan ahead of the full tree-sitter parse: if it finds no function or
// class declaration anywhere in the file, the grammar compile and two
// query walks Parse would otherwise run are skipped, since the chunk
// query could not match anything either way. The second return reports
// whether the scan actually ran — go-fast can't handle ES6 modules (the
// teacher's own hybrid analyzer hits the same wall and falls back to its
// slower path on error), so a parse failure here means "let tree-sitter
// decide," not "this file is empty."
func fastScanHasUnits(source []byte) (hasUnits bool, scanned bool) {
	program, err := fastparser.ParseFile(string(source))
	if err != nil {
		return false, false
	}
	for _, item := range program.Body {
		if stmtHasUnit(item.Stmt) {
			return true, true
		}
	}
	return false, true
}

func stmtHasUnit(stmt fastast.Stmt) bool {
	switch s := stmt.(type) {
	case nil:
		return false
	case *fastast.FunctionDeclaration:
		return true
	case *fastast.ClassDeclaration:
		return true
	case *fastast.VariableDeclaration:
		for _, decl := range s.List {
			if decl.Initializer == nil || decl.Initializer.Expr == nil {
				continue
			}
			switch decl.Initializer.Expr.(type) {
			case *fastast.FunctionLiteral, *fastast.ArrowFunctionLiteral:
				return true
			}
		}
		return false
	case *fastast.BlockStatement:
		for _, item := range s.List {
			if stmtHasUnit(item.Stmt) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
