package store

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"minitodo/model"
)

// BackupFileName is the name of the exported backup document.
const BackupFileName = "todo-backup.json"

// Export writes the collection as an indented {"todos": [...]} document.
func Export(w io.Writer, c model.Collection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(model.Snapshot{Todos: c.Clone()})
}

// ExportFile writes the backup document into dir and returns its path.
func ExportFile(dir string, c model.Collection) (string, error) {
	var buf bytes.Buffer
	if err := Export(&buf, c); err != nil {
		return "", err
	}
	path := filepath.Join(dir, BackupFileName)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
