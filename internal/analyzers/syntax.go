package analyzers

import (
	"fmt"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammar pairs a tree-sitter language with the query that captures its function definitions.
type grammar struct {
	language *sitter.Language
	query    string
}

var (
	goGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_go.Language()),
		query: `
		(function_declaration) @fn
		(method_declaration) @fn
		(func_literal) @fn
		`,
	}
	pythonGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_python.Language()),
		query:    `(function_definition) @fn`,
	}
	typescriptGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		query: `
		(function_declaration) @fn
		(method_definition) @fn
		(arrow_function) @fn
		`,
	}
	tsxGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		query:    typescriptGrammar.query,
	}
	javaGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_java.Language()),
		query: `
		(method_declaration) @fn
		(constructor_declaration) @fn
		`,
	}
	cGrammar = grammar{
		language: sitter.NewLanguage(tree_sitter_c.Language()),
		query:    `(function_definition) @fn`,
	}
)

// grammars maps the detected language of a file to its grammar. JavaScript is parsed with the
// TypeScript grammar, which accepts it.
var grammars = map[string]grammar{
	"go":         goGrammar,
	"python":     pythonGrammar,
	"javascript": typescriptGrammar,
	"typescript": typescriptGrammar,
	"jsx":        tsxGrammar,
	"tsx":        tsxGrammar,
	"java":       javaGrammar,
	"c":          cGrammar,
}

// SupportsSyntax reports whether functions can be extracted for a language.
func SupportsSyntax(language string) bool {
	_, ok := grammars[strings.ToLower(language)]
	return ok
}

// ExtractFunctions parses content and returns every function definition in source order.
// A parser is created per call because tree-sitter parsers are not safe for concurrent use.
func ExtractFunctions(content, filename, language string) ([]types.FunctionSpan, error) {
	language = strings.ToLower(language)
	g, ok := grammars[language]
	if !ok {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(g.language); err != nil {
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}

	src := []byte(content)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s: tree-sitter returned nil", filename)
	}
	defer tree.Close()

	q, err := sitter.NewQuery(g.language, g.query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(q, tree.RootNode(), src)

	var spans []types.FunctionSpan
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, c := range m.Captures {
			node := c.Node
			spans = append(spans, types.FunctionSpan{
				Name:       functionName(&node, src),
				FilePath:   filename,
				StartLine:  int(node.StartPosition().Row) + 1,
				EndLine:    int(node.EndPosition().Row) + 1,
				Parameters: countParameters(parametersNode(&node), src, language),
			})
		}
	}

	return spans, nil
}

func functionName(node *sitter.Node, src []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Utf8Text(src)
	}

	// C nests the name inside one or more declarators.
	for decl := node.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		if decl.Kind() == "identifier" || decl.Kind() == "field_identifier" {
			return decl.Utf8Text(src)
		}
	}

	// const handler = () => {}
	if parent := node.Parent(); parent != nil && parent.Kind() == "variable_declarator" {
		if name := parent.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(src)
		}
	}

	return ""
}

func parametersNode(node *sitter.Node) *sitter.Node {
	if params := node.ChildByFieldName("parameters"); params != nil {
		return params
	}
	// Single-identifier arrow functions: x => x * 2
	if param := node.ChildByFieldName("parameter"); param != nil {
		return param
	}
	for decl := node.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		if params := decl.ChildByFieldName("parameters"); params != nil {
			return params
		}
	}
	return nil
}

func countParameters(params *sitter.Node, src []byte, language string) int {
	if params == nil {
		return 0
	}
	if params.Kind() == "identifier" {
		return 1
	}

	count := 0
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "comment":
			continue
		case "parameter_declaration":
			if language == "go" {
				count += goParameterNames(child)
				continue
			}
			if language == "c" && strings.TrimSpace(child.Utf8Text(src)) == "void" {
				continue
			}
		case "identifier":
			if language == "python" {
				if name := child.Utf8Text(src); name == "self" || name == "cls" {
					continue
				}
			}
		}
		count++
	}

	return count
}

// goParameterNames counts the names of a Go parameter declaration: "a, b int" declares two.
func goParameterNames(decl *sitter.Node) int {
	names := 0
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		if child := decl.NamedChild(i); child != nil && child.Kind() == "identifier" {
			names++
		}
	}
	if names == 0 {
		return 1
	}
	return names
}
