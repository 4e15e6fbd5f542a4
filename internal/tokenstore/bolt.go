package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/naveenspark/investa/pkg/domain"
)

// FileName is the database file created inside the data directory.
const FileName = "session.db"

var sessionBucket = []byte("session")

// Bolt is a Store backed by a BBolt database file.
type Bolt struct {
	db *bbolt.DB
}

var _ Store = (*Bolt)(nil)

// NewBolt wraps an already open database.
func NewBolt(db *bbolt.DB) *Bolt {
	return &Bolt{db: db}
}

// OpenBolt opens (or creates) dir/session.db. The lock wait is bounded so a
// second running instance fails fast instead of hanging.
func OpenBolt(dir string) (*Bolt, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("tokenstore.OpenBolt: create data dir: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dir, FileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("tokenstore.OpenBolt: %w", err)
	}
	return NewBolt(db), nil
}

// Close closes the underlying database.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) Read() (string, *domain.User) {
	var token string
	var user *domain.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		token = string(b.Get([]byte(KeyToken)))
		user = decodeUser(b.Get([]byte(KeyUser)))
		return nil
	})
	if err != nil {
		return "", nil
	}
	return token, user
}

func (s *Bolt) Write(token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("tokenstore.Write: marshal user: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(KeyToken), []byte(token)); err != nil {
			return err
		}
		return b.Put([]byte(KeyUser), data)
	})
	if err != nil {
		return fmt.Errorf("tokenstore.Write: %w", err)
	}
	return nil
}

func (s *Bolt) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(KeyToken)); err != nil {
			return err
		}
		return b.Delete([]byte(KeyUser))
	})
	if err != nil {
		return fmt.Errorf("tokenstore.Clear: %w", err)
	}
	return nil
}
