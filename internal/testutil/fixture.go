// Package testutil provides shared helpers for loading test fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Fixture is a C++ source file from testdata/cpp.
type Fixture struct {
	// Name is the file name, e.g. "VariousKeywords.cpp"
	Name string

	// Path is the absolute path to the file
	Path string

	// Text is the file content
	Text string
}

// LoadFixture reads a single fixture by file name, failing the test on error.
func LoadFixture(t *testing.T, name string) Fixture {
	t.Helper()

	path := filepath.Join(FixturesRoot(t), name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return Fixture{Name: name, Path: path, Text: string(data)}
}

// LoadFixtures reads every fixture in testdata/cpp, sorted by name.
func LoadFixtures(t *testing.T) []Fixture {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(FixturesRoot(t), "*.cpp"))
	if err != nil {
		t.Fatalf("Failed to list fixtures: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("No fixtures found in testdata/cpp")
	}
	sort.Strings(matches)

	fixtures := make([]Fixture, 0, len(matches))
	for _, m := range matches {
		fixtures = append(fixtures, LoadFixture(t, filepath.Base(m)))
	}
	return fixtures
}

// FixturesRoot returns the absolute path to testdata/cpp.
func FixturesRoot(t *testing.T) string {
	t.Helper()

	// Navigate from internal/testutil to project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	root := filepath.Join(projectRoot, "testdata", "cpp")

	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", root)
	}
	return root
}
