//go:build cgo

package decl

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// TreeSitterExtractor extracts declarations from a tree-sitter C++ parse.
// When the parse yields no recognisable declaration it falls back to the
// lexical extractor.
type TreeSitterExtractor struct {
	parser *sitter.Parser
}

// NewTreeSitterExtractor creates an extractor with its own parser. The
// extractor is not safe for concurrent use.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &TreeSitterExtractor{parser: p}
}

// IsAvailable reports whether the tree-sitter backend is compiled in.
func IsAvailable() bool { return true }

// Extract implements Extractor.
func (e *TreeSitterExtractor) Extract(ctx context.Context, text string) (Declaration, error) {
	source := []byte(text)
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return Declaration{}, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var first *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		if c.Type() != "comment" {
			first = c
			break
		}
	}
	if first == nil {
		return Extract(text), nil
	}

	var d Declaration
	node := first
	for node.Type() == "template_declaration" {
		d.Template = true
		if list := node.ChildByFieldName("parameters"); list != nil {
			d.Params = append(d.Params, templateParams(list, source)...)
		}
		node = lastNamedChild(node)
		if node == nil {
			return Extract(text), nil
		}
	}

	switch node.Type() {
	case "preproc_function_def", "preproc_def":
		return Extract(text), nil
	case "class_specifier", "struct_specifier", "union_specifier":
		d.Kind = KindClass
		d.Name = fieldText(node, "name", source)
		return d, nil
	case "enum_specifier":
		d.Kind = KindEnum
		d.Name = fieldText(node, "name", source)
		return d, nil
	case "alias_declaration", "type_definition":
		d.Kind = KindAlias
		d.Name = fieldText(node, "name", source)
		return d, nil
	}

	fn := findFunctionDeclarator(node)
	if fn == nil {
		// "class X {};" parses as a declaration whose type is the class.
		if t := node.ChildByFieldName("type"); t != nil {
			switch t.Type() {
			case "class_specifier", "struct_specifier", "union_specifier":
				d.Kind = KindClass
				d.Name = fieldText(t, "name", source)
				return d, nil
			}
		}
		h := Extract(text)
		h.Params = append(d.Params, h.FunctionParams()...)
		h.Template = h.Template || d.Template
		return h, nil
	}

	d.Kind = KindFunction
	d.Name = fieldText(fn, "declarator", source)
	if list := fn.ChildByFieldName("parameters"); list != nil {
		d.Params = append(d.Params, functionParams(list, source)...)
	}
	return d, nil
}

// findFunctionDeclarator looks for the function declarator of a function
// definition or declaration, without entering bodies or parameter lists.
func findFunctionDeclarator(n *sitter.Node) *sitter.Node {
	if n.Type() == "function_declarator" {
		return n
	}
	switch n.Type() {
	case "compound_statement", "parameter_list", "field_declaration_list":
		return nil
	}
	if d := n.ChildByFieldName("declarator"); d != nil {
		return findFunctionDeclarator(d)
	}
	return nil
}

func functionParams(list *sitter.Node, source []byte) []Parameter {
	var out []Parameter
	for i := 0; i < int(list.ChildCount()); i++ {
		c := list.Child(i)
		switch c.Type() {
		case "...", "variadic_parameter":
			out = append(out, Parameter{Variadic: true})
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
			p := Parameter{Variadic: c.Type() == "variadic_parameter_declaration"}
			if d := c.ChildByFieldName("declarator"); d != nil {
				p.Name, p.Named = declaratorName(d, source)
			} else if t := c.ChildByFieldName("type"); t != nil && t.Type() == "primitive_type" && t.Content(source) == "void" && list.NamedChildCount() == 1 {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func templateParams(list *sitter.Node, source []byte) []Parameter {
	var out []Parameter
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		p := Parameter{Template: true}
		switch c.Type() {
		case "type_parameter_declaration", "variadic_type_parameter_declaration":
			p.Variadic = c.Type() == "variadic_type_parameter_declaration"
			if id := lastNamedChild(c); id != nil && id.Type() == "type_identifier" {
				p.Name, p.Named = id.Content(source), true
			}
		case "optional_type_parameter_declaration":
			if name := c.ChildByFieldName("name"); name != nil {
				p.Name, p.Named = name.Content(source), true
			}
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
			p.Variadic = c.Type() == "variadic_parameter_declaration"
			if d := c.ChildByFieldName("declarator"); d != nil {
				p.Name, p.Named = declaratorName(d, source)
			}
		case "template_template_parameter_declaration":
			if id := lastNamedChild(c); id != nil {
				if inner := lastNamedChild(id); inner != nil && inner.Type() == "type_identifier" {
					p.Name, p.Named = inner.Content(source), true
				}
			}
		default:
			continue
		}
		out = append(out, p)
	}
	return out
}

// declaratorName digs through pointer, reference and array declarators to
// the declared identifier. Function pointer declarators stay nameless.
func declaratorName(n *sitter.Node, source []byte) (string, bool) {
	switch n.Type() {
	case "identifier", "field_identifier":
		return n.Content(source), true
	case "function_declarator", "abstract_function_declarator", "parenthesized_declarator",
		"abstract_pointer_declarator", "abstract_reference_declarator", "abstract_array_declarator":
		return "", false
	}
	if d := n.ChildByFieldName("declarator"); d != nil {
		return declaratorName(d, source)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier", "pointer_declarator", "reference_declarator", "array_declarator", "variadic_declarator":
			return declaratorName(c, source)
		}
	}
	return "", false
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}

func fieldText(n *sitter.Node, field string, source []byte) string {
	if c := n.ChildByFieldName(field); c != nil {
		return c.Content(source)
	}
	return ""
}
