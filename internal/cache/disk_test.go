package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sampleDoc struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Tags  map[string]int `json:"tags"`
}

func TestDiskStoreRoundTrip(t *testing.T) {
	store := NewDiskStore(filepath.Join(t.TempDir(), "nested", "cache"))

	want := sampleDoc{Name: "grace", Count: 10, Tags: map[string]int{"easy": 6}}
	if err := store.Write("userStats", want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var got sampleDoc
	found, err := store.Read("userStats", &got)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !found {
		t.Fatal("Read() found = false, want true")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiskStoreOverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)

	for i := range 3 {
		if err := store.Write("friends", sampleDoc{Count: i}); err != nil {
			t.Fatalf("Write(%d) error = %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "friends.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory = %v, want only friends.json", names)
	}

	var got sampleDoc
	if _, err := store.Read("friends", &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2 (last write)", got.Count)
	}
}

func TestDiskStoreReadMissing(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	var got sampleDoc
	found, err := store.Read("friends", &got)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if found {
		t.Fatal("Read() found = true for missing document")
	}
}

func TestDiskStoreReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "friends.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var got sampleDoc
	found, err := NewDiskStore(dir).Read("friends", &got)
	if err == nil {
		t.Fatal("Read() expected error for corrupt file")
	}
	if found {
		t.Fatal("Read() found = true for corrupt file")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Fatalf("error = %v, want parsing error", err)
	}
}

func TestDiskStoreRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)
	if err := store.Write("friends", []string{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for i := range 2 {
		if err := store.Remove("friends"); err != nil {
			t.Fatalf("Remove() call %d error = %v", i+1, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "friends.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat() error = %v, want not exist", err)
	}
}

func TestDiskStoreRejectsInvalidNames(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	for _, name := range []string{"", ".", "..", "../escape", "a/b", ".hidden"} {
		if err := store.Write(name, 1); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidName", name, err)
		}
		var v int
		if _, err := store.Read(name, &v); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Read(%q) error = %v, want ErrInvalidName", name, err)
		}
		if err := store.Remove(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Remove(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDiskStoreWriteUnmarshalableValue(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)

	if err := store.Write("friends", make(chan int)); err == nil {
		t.Fatal("Write() expected error for unmarshalable value")
	}
	if _, err := os.Stat(filepath.Join(dir, "friends.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("friends.json should not exist after failed write, Stat() error = %v", err)
	}
}
