// Package decl extracts the parameter shape of the C++ declaration that
// follows a documentation comment: its kind, its name, its function or
// macro parameters and its template parameters.
//
// Extraction is lexical. Names that only appear after macro expansion or
// inside function pointer declarators are not recovered; such parameters
// are reported without a name.
package decl

import "context"

// Kind is the kind of a declaration.
type Kind string

const (
	KindUnknown  Kind = "unknown"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindEnum     Kind = "enum"
	KindMacro    Kind = "macro"
	KindAlias    Kind = "alias"
	KindVariable Kind = "variable"
)

// Parameter is one function, macro or template parameter.
type Parameter struct {
	Name     string `json:"name,omitempty"`
	Named    bool   `json:"named"`
	Template bool   `json:"template,omitempty"` // template parameter rather than function parameter
	Variadic bool   `json:"variadic,omitempty"` // "..." or a parameter pack
}

// Declaration is the extracted shape of one declaration.
type Declaration struct {
	Kind     Kind        `json:"kind"`
	Name     string      `json:"name,omitempty"`
	Template bool        `json:"template"`
	Params   []Parameter `json:"params,omitempty"`
}

// FunctionParams returns the function or macro parameters in order.
func (d Declaration) FunctionParams() []Parameter {
	return d.filter(false)
}

// TemplateParams returns the template parameters in order.
func (d Declaration) TemplateParams() []Parameter {
	return d.filter(true)
}

func (d Declaration) filter(template bool) []Parameter {
	var out []Parameter
	for _, p := range d.Params {
		if p.Template == template {
			out = append(out, p)
		}
	}
	return out
}

// Extractor extracts the declaration at the start of text.
type Extractor interface {
	Extract(ctx context.Context, text string) (Declaration, error)
}

// Heuristic is the lexical Extractor. It never fails on malformed input.
type Heuristic struct{}

// Extract implements Extractor.
func (Heuristic) Extract(ctx context.Context, text string) (Declaration, error) {
	if err := ctx.Err(); err != nil {
		return Declaration{}, err
	}
	return Extract(text), nil
}

// ExtractParameters returns the function, macro and template parameters of
// the declaration at the start of text together with its kind.
func ExtractParameters(text string) ([]Parameter, Kind) {
	d := Extract(text)
	return d.Params, d.Kind
}
