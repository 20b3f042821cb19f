// Package feedio writes generated feed files atomically. Every output is
// a single replace of the prior file, never an in-place update, so a
// reader can always see either the old or the new document.
package feedio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteBytes atomically replaces path with data, creating parent
// directories as needed.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("feedio: create output dir: %w", err)
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("feedio: create pending file: %w", err)
	}
	defer pending.Cleanup()
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("feedio: write %s: %w", filepath.Base(path), err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("feedio: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteJSON marshals v with two-space indentation and atomically replaces
// path. Pretty output keeps the generated feeds diffable.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("feedio: marshal %s: %w", filepath.Base(path), err)
	}
	return WriteBytes(path, append(data, '\n'))
}
