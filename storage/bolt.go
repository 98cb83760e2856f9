// file: storage/bolt.go
package storage

import (
	"bytes"
	"context"
	"time"

	"github.com/boltdb/bolt"
)

var bucketName = []byte("EventLink")

// BoltStore keeps every key in one bucket of a BoltDB file. Bolt allows a
// single writer at a time, which is what serializes Update.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the BoltDB file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{bucket: tx.Bucket(bucketName), readOnly: true})
	})
	return mapBoltErr(err)
}

func (s *BoltStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{bucket: tx.Bucket(bucketName)})
	})
	return mapBoltErr(err)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func mapBoltErr(err error) error {
	if err == bolt.ErrDatabaseNotOpen {
		return ErrClosed
	}
	return err
}

type boltTx struct {
	bucket   *bolt.Bucket
	readOnly bool
}

func (tx *boltTx) Get(key string) (string, bool, error) {
	v := tx.bucket.Get([]byte(key))
	if v == nil {
		return "", false, nil
	}
	// string() copies; v is only valid for the life of the transaction.
	return string(v), true, nil
}

func (tx *boltTx) Set(key, value string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return tx.bucket.Put([]byte(key), []byte(value))
}

func (tx *boltTx) Remove(key string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return tx.bucket.Delete([]byte(key))
}

func (tx *boltTx) Keys(prefix string) ([]string, error) {
	p := []byte(prefix)
	var keys []string
	c := tx.bucket.Cursor()
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		keys = append(keys, string(k))
	}
	return keys, nil
}
