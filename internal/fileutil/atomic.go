// Package fileutil holds small file system helpers.
package fileutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSON stores v as indented JSON at filename. Readers of filename see
// either its previous contents or the complete new document.
func WriteJSON(filename string, v any, perm os.FileMode) error {
	return Replace(filename, perm, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// Replace stages the output of fill next to filename and swaps it in once
// fill succeeds and the bytes are on disk. On any failure the staged file
// is removed and filename is untouched.
func Replace(filename string, perm os.FileMode, fill func(io.Writer) error) error {
	staged, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+"-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filename, err)
	}

	if err := commit(staged, perm, fill); err != nil {
		_ = os.Remove(staged.Name())
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err := os.Rename(staged.Name(), filename); err != nil {
		_ = os.Remove(staged.Name())
		return fmt.Errorf("replace %s: %w", filename, err)
	}
	return nil
}

// commit fills f and closes it, leaving it synced with the final mode
func commit(f *os.File, perm os.FileMode, fill func(io.Writer) error) error {
	buf := bufio.NewWriter(f)
	err := fill(buf)
	if err == nil {
		err = buf.Flush()
	}
	if err == nil {
		err = f.Chmod(perm)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
