package feedio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteBytesReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")

	if err := WriteBytes(path, []byte("old")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteBytes(path, []byte("new")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestWriteBytesCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "feed.json")
	if err := WriteBytes(path, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestWriteJSONPrettyPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.json")
	if err := WriteJSON(path, map[string]any{"a": 1, "b": "two"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Error("output missing trailing newline")
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["b"] != "two" {
		t.Errorf(`got["b"] = %v, want "two"`, got["b"])
	}
}
