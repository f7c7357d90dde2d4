package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateDir(t *testing.T) {
	t.Setenv(HomeEnvVar, "")
	root := t.TempDir()

	if got, want := StateDir(root), filepath.Join(root, ".doxyscan"); got != want {
		t.Errorf("StateDir = %q, want %q", got, want)
	}
	if got, want := ConfigPath(root), filepath.Join(root, ".doxyscan", "config.json"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
	if got, want := IndexPath(root), filepath.Join(root, ".doxyscan", "index.db"); got != want {
		t.Errorf("IndexPath = %q, want %q", got, want)
	}
	if got, want := LogPath(root), filepath.Join(root, ".doxyscan", "logs", "doxyscan.log"); got != want {
		t.Errorf("LogPath = %q, want %q", got, want)
	}
}

func TestStateDirOverride(t *testing.T) {
	custom := t.TempDir()
	t.Setenv(HomeEnvVar, custom)

	if got := StateDir("/anywhere"); got != custom {
		t.Errorf("StateDir = %q, want %q", got, custom)
	}
	dir, err := EnsureLogsDir("/anywhere")
	if err != nil {
		t.Fatalf("EnsureLogsDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("logs dir not created: %v", err)
	}
}

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src", "core"), 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(root, "src", "core", "a.cpp")
	if err := os.WriteFile(file, []byte("int a;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		want   string
		within bool
	}{
		{"existing file", file, "src/core/a.cpp", true},
		{"missing file", filepath.Join(root, "gen", "b.h"), "gen/b.h", true},
		{"root itself", root, ".", true},
		{"outside", filepath.Dir(root), "..", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalizePath(tt.path, root)
			if err != nil {
				t.Fatalf("CanonicalizePath: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanonicalizePath = %q, want %q", got, tt.want)
			}
			if IsWithinRoot(tt.path, root) != tt.within {
				t.Errorf("IsWithinRoot = %v, want %v", !tt.within, tt.within)
			}
		})
	}
}

func TestJoinRoot(t *testing.T) {
	got := JoinRoot("/repo", "src/core/a.cpp")
	want := filepath.Join("/repo", "src", "core", "a.cpp")
	if got != want {
		t.Errorf("JoinRoot = %q, want %q", got, want)
	}
}
