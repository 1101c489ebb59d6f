package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// loadDocument reads a JSON document into v. A missing file is not an
// error: v is left untouched and ok is false.
func loadDocument(path string, v any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to read document %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrapf(err, "failed to parse document %s", path)
	}
	return true, nil
}

// saveDocument writes v as an indented UTF-8 JSON document. Non-ASCII text
// is written as-is, not escaped, so the documents stay human-readable.
// The write goes through a temp file and rename so a crash mid-write never
// truncates the previous document.
func saveDocument(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to encode document %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close temp file for %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace document %s", path)
	}
	return nil
}
