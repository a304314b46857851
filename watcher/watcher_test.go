package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"avsave/logging"
)

func init() {
	logging.Quiet()
}

func expect_change(t *testing.T, changes <-chan Change, path string) {
	t.Helper()
	select {
	case c := <-changes:
		if c.Path != path {
			t.Errorf("change to %v, want %v", c.Path, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func Test_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SAVEGAME.sav")
	if err := os.WriteFile(path, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(path)
	w.Settle = 50 * time.Millisecond
	changes := make(chan Change, 10)
	if err := w.Start(changes); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// other files in the same directory are not reported
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// several writes in a row are one change
	for _, s := range []string{"two", "three", "four"} {
		if err := os.WriteFile(path, []byte(s), 0644); err != nil {
			t.Fatal(err)
		}
	}
	expect_change(t, changes, path)
	select {
	case c := <-changes:
		t.Errorf("extra change reported: %+v", c)
	case <-time.After(300 * time.Millisecond):
	}

	// replaced by rename, the way careful programs save
	tmp := filepath.Join(dir, "SAVEGAME.sav.tmp")
	if err := os.WriteFile(tmp, []byte("five"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	expect_change(t, changes, path)
}

func Test_Stop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "save.dat")
	w := New(path)
	changes := make(chan Change)
	if err := w.Start(changes); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		t.Errorf("change after Stop: %+v", c)
	case <-time.After(2 * SETTLE):
	}
}

func Test_MissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "save.dat"))
	if err := w.Start(make(chan Change)); err == nil {
		w.Stop()
		t.Error("watching a missing directory")
	}
}
