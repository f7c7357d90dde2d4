//go:build !cgo

package decl

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when the tree-sitter backend is unavailable.
var ErrNoCGO = errors.New("tree-sitter declaration extraction requires CGO")

// TreeSitterExtractor is a stub for non-CGO builds.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor returns nil when CGO is disabled.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return nil
}

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool { return false }

// Extract returns ErrNoCGO.
func (e *TreeSitterExtractor) Extract(ctx context.Context, text string) (Declaration, error) {
	return Declaration{}, ErrNoCGO
}
