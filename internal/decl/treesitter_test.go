//go:build cgo

package decl

import (
	"context"
	"reflect"
	"testing"
)

func TestTreeSitterExtractor(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		kind     Kind
		declName string
		tparams  []string
		params   []string
	}{
		{
			name:     "pointer reference, function pointer and ellipsis",
			text:     "void f(int * & p1, int (*fp)(double, short), ...);",
			kind:     KindFunction,
			declName: "f",
			tparams:  []string{},
			params:   []string{"p1", "", "..."},
		},
		{
			name:     "template class",
			text:     "template <class T, int N>\nclass Buffer\n{\n};",
			kind:     KindClass,
			declName: "Buffer",
			tparams:  []string{"T", "N"},
			params:   []string{},
		},
		{
			name:     "macro falls back to the lexical extractor",
			text:     "#define MAX(a, b) ((a) > (b) ? (a) : (b))\n",
			kind:     KindMacro,
			declName: "MAX",
			tparams:  []string{},
			params:   []string{"a", "b"},
		},
	}

	e := NewTreeSitterExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Extract(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if d.Kind != tt.kind || d.Name != tt.declName {
				t.Errorf("got %q %q, want %q %q", d.Kind, d.Name, tt.kind, tt.declName)
			}
			if got := names(d.TemplateParams()); !reflect.DeepEqual(got, tt.tparams) {
				t.Errorf("template params = %q, want %q", got, tt.tparams)
			}
			if got := names(d.FunctionParams()); !reflect.DeepEqual(got, tt.params) {
				t.Errorf("params = %q, want %q", got, tt.params)
			}
		})
	}
}
