// Package paths resolves the on-disk locations doxyscan uses inside a
// project and normalizes source paths to project-relative form.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DirName is the per-project state directory.
	DirName = ".doxyscan"

	// HomeEnvVar overrides the state directory location.
	HomeEnvVar = "DOXYSCAN_HOME"

	configFile = "config.json"
	indexFile  = "index.db"
	logsDir    = "logs"
	logFile    = "doxyscan.log"
)

// StateDir returns <root>/.doxyscan, or $DOXYSCAN_HOME when set.
func StateDir(root string) string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	return filepath.Join(root, DirName)
}

// ConfigPath returns the config file location.
func ConfigPath(root string) string {
	return filepath.Join(StateDir(root), configFile)
}

// IndexPath returns the scan index database location.
func IndexPath(root string) string {
	return filepath.Join(StateDir(root), indexFile)
}

// LogPath returns the log file location.
func LogPath(root string) string {
	return filepath.Join(StateDir(root), logsDir, logFile)
}

// EnsureStateDir creates the state directory and returns it.
func EnsureStateDir(root string) (string, error) {
	dir := StateDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureLogsDir creates the logs directory and returns it.
func EnsureLogsDir(root string) (string, error) {
	dir := filepath.Join(StateDir(root), logsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath turns a path into a root-relative path with forward
// slashes. Symlinks are resolved when the file exists.
func CanonicalizePath(path, root string) (string, error) {
	resolved, err := evalIfExists(path)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalIfExists(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalIfExists(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if os.IsNotExist(err) {
		return path, nil
	}
	return resolved, err
}

// IsWithinRoot reports whether path lies inside root.
func IsWithinRoot(path, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// JoinRoot joins root with a canonical, slash-separated path.
func JoinRoot(root, canonical string) string {
	parts := strings.Split(strings.ReplaceAll(canonical, "\\", "/"), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}
