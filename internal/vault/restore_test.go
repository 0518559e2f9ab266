package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memBackups struct {
	images [][]byte
	err    error
}

func (m *memBackups) SaveBackup(image []byte) error {
	if m.err != nil {
		return m.err
	}
	m.images = append(m.images, append([]byte(nil), image...))
	return nil
}

func TestBackupsSavedOnOverwrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v")
	backups := &memBackups{}

	v := openTest(t, path, "pw", WithBackups(backups))
	defer v.Close()

	if len(backups.images) != 0 {
		t.Fatalf("creation saved %d backups, want 0", len(backups.images))
	}

	first, _ := os.ReadFile(path)
	if err := v.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if len(backups.images) != 1 || !bytes.Equal(backups.images[0], first) {
		t.Fatal("previous image was not saved")
	}

	// Failed deletes do not write and do not back up.
	v.Delete(ctx, "missing")
	if len(backups.images) != 1 {
		t.Errorf("backups = %d, want 1", len(backups.images))
	}
}

func TestBackupFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v")
	backups := &memBackups{err: errors.New("history unavailable")}

	v := openTest(t, path, "pw", WithBackups(backups))
	defer v.Close()

	if err := v.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
}

func TestUnseal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v")

	v := openTest(t, path, "pw")
	v.Set(ctx, "k", "v")
	v.Close()

	image, _ := os.ReadFile(path)

	secrets, err := Unseal(image, []byte("pw"))
	if err != nil {
		t.Fatalf("Unseal failed: %v", err)
	}
	if secrets["k"] != "v" {
		t.Errorf("secrets = %v", secrets)
	}

	if _, err := Unseal(image, []byte("nope")); !errors.Is(err, ErrInvalidMasterPassword) {
		t.Errorf("Unseal with wrong password = %v", err)
	}
	if _, err := Unseal(image[:10], []byte("pw")); !errors.Is(err, ErrVaultCorrupted) {
		t.Errorf("Unseal of short image = %v", err)
	}
	if _, err := Unseal(image, nil); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("Unseal without password = %v", err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v")
	backups := &memBackups{}

	v := openTest(t, path, "pw", WithBackups(backups))
	v.Set(ctx, "k", "old")
	v.Set(ctx, "k", "new")
	v.Close()

	// backups.images[1] holds the vault with k=old.
	if err := Restore(ctx, path, backups.images[1], []byte("nope")); !errors.Is(err, ErrInvalidMasterPassword) {
		t.Fatalf("Restore with wrong password = %v", err)
	}

	if err := Restore(ctx, path, backups.images[1], []byte("pw"), WithBackups(backups)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(backups.images) != 3 {
		t.Errorf("restore did not back up the replaced vault")
	}

	v = openTest(t, path, "pw")
	defer v.Close()
	if got, _ := v.Get("k"); got != "old" {
		t.Errorf("Get = %q, want old", got)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != FilePermSecure {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
}

func TestInspectMissing(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "v")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Inspect = %v, want ErrNotInitialized", err)
	}
}

func TestDiff(t *testing.T) {
	before := map[string]string{
		"same":    "1",
		"changed": "a",
		"gone":    "x",
	}
	after := map[string]string{
		"same":    "1",
		"changed": "b",
		"new":     "y",
	}

	got := Diff(before, after)
	want := []Change{
		{Name: "changed", Kind: Modified},
		{Name: "gone", Kind: Removed},
		{Name: "new", Kind: Added},
	}

	if len(got) != len(want) {
		t.Fatalf("Diff = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Diff[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if d := Diff(before, before); len(d) != 0 {
		t.Errorf("Diff of equal maps = %v", d)
	}
}

func TestListingHidesValues(t *testing.T) {
	out := listing(map[string]string{"smtp_password": "hunter2"})
	if bytes.Contains([]byte(out), []byte("hunter2")) {
		t.Error("listing leaks the secret value")
	}
}
