package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.vault.history")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	db := openTestDB(t)

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	// Initialize is idempotent
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}

	info, err := os.Stat(db.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != FilePermSecure {
		t.Errorf("mode = %v, want %v", info.Mode().Perm(), os.FileMode(FilePermSecure))
	}
}

func TestVaultID(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetVaultID(); err == nil {
		t.Error("Expected error before vault ID exists")
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to create vault ID: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("vault ID %q is not a UUID: %v", id, err)
	}

	again, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Errorf("vault ID changed: %s != %s", again, id)
	}
}

func TestBackupsNewestFirstAndPruned(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := db.SaveBackup([]byte(fmt.Sprintf("image-%d", i)), 3); err != nil {
			t.Fatalf("SaveBackup %d failed: %v", i, err)
		}
	}

	list, err := db.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 backups, got %d", len(list))
	}

	for i, want := range []string{"image-4", "image-3", "image-2"} {
		data, err := db.GetBackup(list[i].ID)
		if err != nil {
			t.Fatalf("GetBackup failed: %v", err)
		}
		if string(data) != want {
			t.Errorf("backup %d = %s, want %s", i, data, want)
		}
		if list[i].Size != len(want) {
			t.Errorf("backup %d size = %d", i, list[i].Size)
		}
	}

	if list[0].ID <= list[2].ID {
		t.Error("backups are not ordered newest first")
	}
}

func TestBackupsUnlimited(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 4; i++ {
		db.SaveBackup([]byte("x"), 0)
	}
	list, _ := db.ListBackups()
	if len(list) != 4 {
		t.Errorf("Expected 4 backups, got %d", len(list))
	}
}

func TestGetBackupNotFound(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetBackup(42); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("GetBackup = %v, want ErrBackupNotFound", err)
	}
}

func TestHistoryPersistence(t *testing.T) {
	dir := t.TempDir()
	path := HistoryPath(filepath.Join(dir, "credentials.vault"))

	h := NewHistory(path, 2)
	for _, img := range []string{"a", "b", "c"} {
		if err := h.SaveBackup([]byte(img)); err != nil {
			t.Fatalf("SaveBackup failed: %v", err)
		}
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	list, err := db.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 backups, got %d", len(list))
	}
	data, _ := db.GetBackup(list[0].ID)
	if string(data) != "c" {
		t.Errorf("newest backup = %s, want c", data)
	}

	if _, err := db.GetModified(); err != nil {
		t.Errorf("GetModified failed: %v", err)
	}
}

func TestCompact(t *testing.T) {
	db := openTestDB(t)

	big := make([]byte, 64*1024)
	for i := 0; i < 10; i++ {
		db.SaveBackup(big, 1)
	}
	id, err := db.SaveBackup([]byte("last"), 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	data, err := db.GetBackup(id)
	if err != nil {
		t.Fatalf("GetBackup after compact failed: %v", err)
	}
	if string(data) != "last" {
		t.Errorf("data = %s, want last", data)
	}

	if _, err := os.Stat(db.Path() + ".compact"); !os.IsNotExist(err) {
		t.Error("compact temp file left behind")
	}
}
