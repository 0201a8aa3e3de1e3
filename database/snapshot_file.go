package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"
)

// SnapshotFiles stores one JSON file per channel under <dir>/<guild>/<channel>.json.
type SnapshotFiles struct {
	dir   string
	mutex sync.RWMutex
}

// NewSnapshotFiles creates a file-backed snapshot store rooted at dir.
func NewSnapshotFiles(dir string) *SnapshotFiles {
	return &SnapshotFiles{dir: dir}
}

func (sf *SnapshotFiles) path(guildID, channelID string) string {
	return filepath.Join(sf.dir, filepath.Base(guildID), filepath.Base(channelID)+".json")
}

// Get reads the snapshot of a channel; a missing file yields an empty slice.
func (sf *SnapshotFiles) Get(_ context.Context, guildID, channelID string) ([]string, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()

	data, err := os.ReadFile(sf.path(guildID, channelID))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.WrapIf(err, "failed to read snapshot file")
	}
	return decodeSnapshot(data)
}

// Set writes the snapshot to a temporary file in the same directory and
// renames it over the target, so a reader sees either the old or the new list.
func (sf *SnapshotFiles) Set(_ context.Context, guildID, channelID string, ids []string) error {
	data, err := encodeSnapshot(ids)
	if err != nil {
		return err
	}

	sf.mutex.Lock()
	defer sf.mutex.Unlock()

	target := sf.path(guildID, channelID)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapIf(err, "failed to create snapshot directory")
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.WrapIf(err, "failed to create snapshot file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapIf(err, "failed to write snapshot file")
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIf(err, "failed to close snapshot file")
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.WrapIf(err, "failed to replace snapshot file")
	}
	return nil
}
