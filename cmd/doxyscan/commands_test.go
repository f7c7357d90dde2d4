package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		formatFlag, rootFlag, tableFlag = "", ".", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.h")
	if err := os.WriteFile(file, []byte("// plain\n/// doc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "classify", "--root", root, "--format", "json", "-q", file)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var resp ClassifyResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	kinds := make([]string, 0, len(resp.Spans))
	for _, s := range resp.Spans {
		kinds = append(kinds, string(s.Kind))
	}
	if got := strings.Join(kinds, ","); got != "line_comment,code,doc_line_comment,code" {
		t.Errorf("kinds = %s", got)
	}
	if resp.Spans[2].Line != 2 || resp.Spans[2].Column != 1 {
		t.Errorf("doc span position = %d:%d", resp.Spans[2].Line, resp.Spans[2].Column)
	}
}

func TestCommandsDescribe(t *testing.T) {
	out, err := execute(t, "commands", "describe", "--root", t.TempDir(), "-q", `\param`)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(out, "group:") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "commands", "describe", "--root", t.TempDir(), "-q", "nosuchcommand"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestRelativePath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(root, "src", "w.h")
	if err := os.WriteFile(abs, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{abs, "src/w.h", false},
		{"src/nope.h", "src/nope.h", false},
		{filepath.Join(t.TempDir(), "x.h"), "", true},
	}
	for _, tt := range tests {
		got, err := relativePath(root, tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("relativePath(%q) err = %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("relativePath(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestSearchCommand(t *testing.T) {
	root := t.TempDir()
	src := "/// @brief Draws the widget.\nvoid draw();\n// not documentation widget\n"
	if err := os.WriteFile(filepath.Join(root, "w.h"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "search", "--root", root, "--format", "json", "-q", "widget")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	if m := resp.Matches[0]; m.Path != "w.h" || m.Line != 1 || m.Commands != "brief" {
		t.Errorf("match = %+v", m)
	}
}
