// Package parser implements the AST Unit Extractor (C2): tree-sitter based
// parsing of a source file into the CodeUnit hierarchy, plus the shared
// parsed-tree handle that the Symbol & Reference Extractor (C3) walks to
// resolve references. One grammar plus two query strings — a chunk query
// for unit boundaries, a reference query for call/type/import/extends/
// field-access sites — is registered per supported language, the same
// split the spec's extension table calls for.
package parser

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// languageDef bundles a grammar with the two query strings the spec
// requires: one identifying unit boundaries (chunkQuery), one identifying
// reference sites (refQuery).
type languageDef struct {
	name       string
	langPtr    func() *tree_sitter.Language
	extensions []string
	chunkQuery string
	refQuery   string
}

var registry = map[string]*languageDef{} // by extension
var byName = map[string]*languageDef{}   // by language name

var (
	loadMu sync.Mutex
	loaded = map[string]*compiledLang{} // lazily compiled parser+queries
)

type compiledLang struct {
	language   *tree_sitter.Language
	chunkQuery *tree_sitter.Query
	refQuery   *tree_sitter.Query
}

func register(def *languageDef) {
	byName[def.name] = def
	for _, ext := range def.extensions {
		registry[ext] = def
	}
}

func init() {
	register(&languageDef{
		name:       "go",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		extensions: []string{".go"},
		chunkQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration
				receiver: (parameter_list (parameter_declaration type: (_) @method.receiver_type))
				name: (field_identifier) @method.name) @method
			(type_declaration (type_spec name: (type_identifier) @type.name type: (struct_type)) @struct)
			(type_declaration (type_spec name: (type_identifier) @type.name type: (interface_type)) @interface)
			(type_declaration (type_spec name: (type_identifier) @type.name) @type)
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (selector_expression field: (field_identifier) @call.name)) @call
			(import_spec path: (interpreted_string_literal) @import.path) @import
			(type_identifier) @type.usage
		`,
	})

	register(&languageDef{
		name:       "python",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		extensions: []string{".py"},
		chunkQuery: `
			(class_definition name: (identifier) @class.name) @class
			(function_definition name: (identifier) @function.name) @function
		`,
		refQuery: `
			(call expression: (identifier) @call.name) @call
			(call expression: (attribute attribute: (identifier) @call.name)) @call
			(import_statement) @import
			(import_from_statement) @import
			(class_definition superclasses: (argument_list (identifier) @extends.name)) @extends
		`,
	})

	register(&languageDef{
		name:       "javascript",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		chunkQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression property: (property_identifier) @call.name)) @call
			(import_statement source: (string) @import.source) @import
			(class_heritage (identifier) @extends.name) @extends
		`,
	})

	register(&languageDef{
		name:       "typescript",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
		extensions: []string{".ts", ".tsx"},
		chunkQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @interface.name) @interface
			(type_alias_declaration name: (type_identifier) @type.name) @type
			(enum_declaration name: (identifier) @enum.name) @enum
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression property: (property_identifier) @call.name)) @call
			(import_statement source: (string) @import.source) @import
			(class_heritage (identifier) @extends.name) @extends
			(implements_clause (type_identifier) @implements.name) @implements
			(type_identifier) @type.usage
		`,
	})

	register(&languageDef{
		name:       "rust",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		extensions: []string{".rs"},
		chunkQuery: `
			(impl_item body: (declaration_list (function_item name: (identifier) @method.name))) @method
			(trait_item body: (declaration_list (function_item name: (identifier) @method.name))) @method
			(function_item name: (identifier) @function.name) @function
			(struct_item name: (type_identifier) @struct.name) @struct
			(enum_item name: (type_identifier) @enum.name) @enum
			(trait_item name: (type_identifier) @trait.name) @trait
			(impl_item type: (type_identifier) @impl.name) @impl
			(type_item name: (type_identifier) @type.name) @type
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (field_expression field: (field_identifier) @call.name)) @call
			(use_declaration) @import
			(impl_item trait: (type_identifier) @implements.name) @implements
			(type_identifier) @type.usage
		`,
	})

	register(&languageDef{
		name:       "java",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		extensions: []string{".java"},
		chunkQuery: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
		`,
		refQuery: `
			(method_invocation name: (identifier) @call.name) @call
			(import_declaration) @import
			(superclass (type_identifier) @extends.name) @extends
			(super_interfaces (type_list (type_identifier) @implements.name)) @implements
			(type_identifier) @type.usage
		`,
	})

	register(&languageDef{
		name:       "c",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		extensions: []string{".c", ".h"},
		chunkQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(struct_specifier name: (type_identifier) @struct.name) @struct
			(enum_specifier name: (type_identifier) @enum.name) @enum
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(preproc_include) @import
			(type_identifier) @type.usage
		`,
	})

	register(&languageDef{
		name:       "cpp",
		langPtr:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		extensions: []string{".cpp", ".cc", ".cxx", ".hpp"},
		chunkQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(function_definition declarator: (function_declarator declarator: (field_identifier) @method.name)) @method
			(class_specifier name: (type_identifier) @class.name) @class
			(struct_specifier name: (type_identifier) @struct.name) @struct
			(enum_specifier name: (type_identifier) @enum.name) @enum
		`,
		refQuery: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (field_expression field: (field_identifier) @call.name)) @call
			(preproc_include) @import
			(using_declaration) @import
			(base_class_clause (type_identifier) @extends.name) @extends
			(type_identifier) @type.usage
		`,
	})
}

// LanguageForExt returns the registered language name for a file extension,
// and false if the extension is unsupported.
func LanguageForExt(ext string) (string, bool) {
	def, ok := registry[ext]
	if !ok {
		return "", false
	}
	return def.name, true
}

func compile(def *languageDef) (*compiledLang, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	if c, ok := loaded[def.name]; ok {
		return c, nil
	}
	lang := def.langPtr()
	chunkQ, err := tree_sitter.NewQuery(lang, def.chunkQuery)
	if err != nil {
		return nil, err
	}
	refQ, err := tree_sitter.NewQuery(lang, def.refQuery)
	if err != nil {
		return nil, err
	}
	c := &compiledLang{language: lang, chunkQuery: chunkQ, refQuery: refQ}
	loaded[def.name] = c
	return c, nil
}
