package slogutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"-5MB", 0},
		{"100", 100},
		{"100B", 100},
		{"1kb", 1024},
		{"10 KB", 10240},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "doxyscan.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	line := append(bytes.Repeat([]byte("a"), 29), '\n')
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should exist: %v", filepath.Base(p), err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("only two backups should be kept")
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) != len(line) {
		t.Errorf("current file holds %d bytes, want %d", len(data), len(line))
	}
}

func TestRotatingFile_NoRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.log")
	rf, err := OpenRotatingFile(path, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	for i := 0; i < 10; i++ {
		if _, err := rf.Write([]byte("0123456789\n")); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup expected without a size limit")
	}
}
