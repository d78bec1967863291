package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var modulesBucket = []byte("modules")

// BoltStore keeps brotli-compressed module sources in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the database file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		path = "modules.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening module store %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(modulesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// LoadModule returns the source stored under name.
func (s *BoltStore) LoadModule(name string) (string, error) {
	key, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	var data []byte
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(modulesBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("module %s: %w", key, fs.ErrNotExist)
		}
		// v is only valid for the life of the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return decompress(data)
}

// Put stores source under name.
func (s *BoltStore) Put(name, source string) error {
	key, err := ValidateName(name)
	if err != nil {
		return err
	}
	data, err := compress(source)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(modulesBucket).Put([]byte(key), data)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if err := s.db.Sync(); err != nil {
		return err
	}
	return s.db.Close()
}
