package writers

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Backup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SAVEGAME.sav")

	made, err := Backup(path, ".backup", []byte("first"))
	if err != nil || !made {
		t.Fatalf("first backup: %v, %v", made, err)
	}
	made, err = Backup(path, ".backup", []byte("second"))
	if err != nil || made {
		t.Fatalf("second backup: %v, %v", made, err)
	}

	got, err := os.ReadFile(path + ".backup")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "first" {
		t.Errorf("backup holds %q, want the first version", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("%d files in dir, want 1", len(entries))
	}
}

func Test_WriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "save.bin")
	if err := os.WriteFile(path, []byte("old contents"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Write_atomic(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("file holds %q", got)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("mode changed to %v", fi.Mode().Perm())
	}

	// no temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("%d files in dir, want 1", len(entries))
	}
}

func Test_WriteAtomicNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.xml")
	if err := Write_atomic(path, []byte("<a/>")); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "<a/>" {
		t.Errorf("file holds %q", got)
	}
}
