// Package changes reads unified diffs to find the lines a change touched,
// so that lint can report only findings on new or edited lines.
package changes

import (
	"sort"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"doxyscan/internal/errors"
)

// File is one file of a patch.
type File struct {
	OldPath string `json:"oldPath,omitempty"`
	NewPath string `json:"newPath,omitempty"`
	IsNew   bool   `json:"isNew,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Renamed bool   `json:"renamed,omitempty"`
	Added   []int  `json:"added"` // 1-based line numbers in the new file, ascending
}

// Path returns the path the file has after the change.
func (f *File) Path() string {
	if f.Deleted {
		return f.OldPath
	}
	return f.NewPath
}

// Patch is a parsed multi-file diff.
type Patch struct {
	Files []File `json:"files"`
}

// Parse parses unified diff text as produced by git diff or diff -u.
func Parse(content string) (*Patch, error) {
	p := &Patch{Files: []File{}}
	if strings.TrimSpace(content) == "" {
		return p, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(content))
	if err != nil {
		return nil, errors.New(errors.PatchInvalid, "cannot parse diff", err)
	}
	for _, fd := range fileDiffs {
		p.Files = append(p.Files, fileOf(fd))
	}
	return p, nil
}

func fileOf(fd *godiff.FileDiff) File {
	f := File{
		OldPath: cleanPath(fd.OrigName),
		NewPath: cleanPath(fd.NewName),
		Added:   []int{},
	}
	if f.OldPath == "/dev/null" || f.OldPath == "" {
		f.IsNew = true
		f.OldPath = ""
	}
	if f.NewPath == "/dev/null" || f.NewPath == "" {
		f.Deleted = true
		f.NewPath = ""
	}
	f.Renamed = f.OldPath != "" && f.NewPath != "" && f.OldPath != f.NewPath

	for _, h := range fd.Hunks {
		f.Added = append(f.Added, addedLines(h)...)
	}
	sort.Ints(f.Added)
	return f
}

// addedLines walks a hunk body and returns the new-file lines it adds.
func addedLines(h *godiff.Hunk) []int {
	var out []int
	line := int(h.NewStartLine)
	body := strings.TrimSuffix(string(h.Body), "\n")
	for _, l := range strings.Split(body, "\n") {
		if l == "" {
			line++
			continue
		}
		switch l[0] {
		case '+':
			out = append(out, line)
			line++
		case ' ':
			line++
		}
	}
	return out
}

func cleanPath(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

// Find returns the file whose post-change path is path.
func (p *Patch) Find(path string) (*File, bool) {
	for i := range p.Files {
		if p.Files[i].NewPath == path {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// Touches reports whether the change added any line in [from, to] of path.
// Files absent from the patch are untouched.
func (p *Patch) Touches(path string, from, to int) bool {
	f, ok := p.Find(path)
	if !ok {
		return false
	}
	i := sort.SearchInts(f.Added, from)
	return i < len(f.Added) && f.Added[i] <= to
}
