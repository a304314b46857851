package writers

// Getting bytes onto disk without losing the old ones.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"avsave/logging"
)

// Write_padding zeroes a region that used to hold payload.
func Write_padding(region []byte) {
	for i := range region {
		region[i] = 0
	}
}

func Backup_path(path, suffix string) string {
	return path + suffix
}

// Backup copies data to path+suffix, unless that file already exists.
// The backup is of the file as it was before the first save; later saves must not replace it.
// Returns whether a backup was written.
func Backup(path, suffix string, data []byte) (bool, error) {
	backup := Backup_path(path, suffix)
	_, err := os.Stat(backup)
	if err == nil {
		logging.Log.Debug("backup already exists", logging.Log.Args("path", backup))
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	// O_EXCL: if something else made one since the Stat, theirs wins
	f, err := os.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(backup)
		return false, fmt.Errorf("writing backup %v: %w", backup, err)
	}

	logging.Log.Info("backup created", logging.Log.Args("path", backup, "size", len(data)))
	return true, nil
}

// Write_atomic replaces path with data: write a temp file next to it, sync, rename over.
// The file is then read back and compared, so a bad write is reported, not discovered by the game.
func Write_atomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp_name := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmp_name)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp_name)
		return err
	}
	if err := os.Rename(tmp_name, path); err != nil {
		os.Remove(tmp_name)
		return err
	}

	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading back %v: %w", path, err)
	}
	if len(written) != len(data) {
		return fmt.Errorf("write to %v failed: expected %d bytes, got %d", path, len(data), len(written))
	}
	if !bytes.Equal(written, data) {
		return fmt.Errorf("write to %v failed: file on disk does not match what was written", path)
	}

	logging.Log.Debug("file written", logging.Log.Args("path", path, "size", len(data)))
	return nil
}
