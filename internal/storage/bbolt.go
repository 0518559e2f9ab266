package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")  // Format version, timestamps, vault ID
	BackupsBucket = []byte("backups") // Previous vault images keyed by timestamp
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
)

const (
	FilePermSecure = 0600
	openTimeout    = 5 * time.Second
)

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrNotInitialized = errors.New("history not initialized")
)

// HistoryPath returns the history database kept next to the vault at path.
func HistoryPath(vaultPath string) string {
	return vaultPath + ".history"
}

// Storage provides BBolt-based storage for vault history
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a history database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, FilePermSecure, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure. It is a no-op for an
// initialized database.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, BackupsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}

		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetModified retrieves the time of the last saved backup
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	vaultID, err := s.GetVaultID()
	if err == nil {
		return vaultID, nil
	}

	vaultID = uuid.NewString()

	err = s.db.Update(func(tx *bolt.Tx) error {
		config, err := tx.CreateBucketIfNotExists(ConfigBucket)
		if err != nil {
			return err
		}
		return config.Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", err
	}

	return vaultID, nil
}

// Backup describes one saved vault image
type Backup struct {
	ID      uint64
	Created time.Time
	Size    int
}

func backupKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// SaveBackup stores a vault image and drops the oldest images beyond keep.
// A non-positive keep disables pruning.
func (s *Storage) SaveBackup(image []byte, keep int) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		backups := tx.Bucket(BackupsBucket)
		if backups == nil {
			return ErrNotInitialized
		}

		now := time.Now()
		id = uint64(now.UnixNano())
		// Keys must stay unique and increasing even on coarse clocks.
		if last, _ := backups.Cursor().Last(); last != nil {
			if prev := binary.BigEndian.Uint64(last); id <= prev {
				id = prev + 1
			}
		}

		if err := backups.Put(backupKey(id), image); err != nil {
			return err
		}

		if keep > 0 {
			if err := prune(backups, keep); err != nil {
				return err
			}
		}

		modified, _ := now.MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
	return id, err
}

// prune deletes the oldest backups until at most keep remain.
func prune(backups *bolt.Bucket, keep int) error {
	var keys [][]byte
	c := backups.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}

	excess := len(keys) - keep
	if excess <= 0 {
		return nil
	}

	stale := keys[:excess]
	for _, k := range stale {
		if err := backups.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// ListBackups returns saved backups, newest first
func (s *Storage) ListBackups() ([]Backup, error) {
	var list []Backup
	err := s.db.View(func(tx *bolt.Tx) error {
		backups := tx.Bucket(BackupsBucket)
		if backups == nil {
			return nil
		}
		c := backups.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			id := binary.BigEndian.Uint64(k)
			list = append(list, Backup{
				ID:      id,
				Created: time.Unix(0, int64(id)),
				Size:    len(v),
			})
		}
		return nil
	})
	return list, err
}

// GetBackup retrieves a saved vault image
func (s *Storage) GetBackup(id uint64) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		backups := tx.Bucket(BackupsBucket)
		if backups == nil {
			return ErrBackupNotFound
		}
		data = backups.Get(backupKey(id))
		if data == nil {
			return ErrBackupNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), data...)
		return nil
	})
	return data, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after pruning backups to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, FilePermSecure, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Remove(tmpPath)
		s.db, _ = bolt.Open(srcPath, FilePermSecure, &bolt.Options{Timeout: openTimeout})
		return fmt.Errorf("failed to replace database: %w", err)
	}

	s.db, err = bolt.Open(srcPath, FilePermSecure, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}

// History opens the database for each call, so the vault can hand it
// backups without keeping the file locked.
type History struct {
	path string
	keep int
}

// NewHistory returns a History for the database at path keeping at most
// keep backups.
func NewHistory(path string, keep int) *History {
	return &History{path: path, keep: keep}
}

// SaveBackup implements vault.Backuper
func (h *History) SaveBackup(image []byte) error {
	s, err := Open(h.path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	_, err = s.SaveBackup(image, h.keep)
	return err
}
