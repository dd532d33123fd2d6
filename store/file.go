package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const maxRotatingBackups = 10

// FileSlot stores the record as a JSON file.
// Writes go through a temporary file and an atomic rename. The previous content is kept
// as <path>.bak plus a rotating set of timestamped backups.
type FileSlot struct {
	Path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{Path: path}
}

func (f *FileSlot) Get() ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *FileSlot) Put(data []byte) error {
	if err := backup(f.Path); err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err == nil {
		pretty.WriteByte('\n')
		data = pretty.Bytes()
	}
	return writeFileAtomic(f.Path, data)
}

// Quarantine moves the current file aside so that a later write does not destroy it.
// It returns the new location, or "" when there was no file.
func (f *FileSlot) Quarantine() (string, error) {
	return moveCorruptFile(f.Path)
}

func (f *FileSlot) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return pruneRotatingBackups(path)
}

func pruneRotatingBackups(path string) error {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= maxRotatingBackups {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-maxRotatingBackups] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405")
	corruptPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext))
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}
