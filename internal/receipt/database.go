package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const usersBucketName = "users"

// ErrNotFound is returned when a receipt does not exist under the
// given user's namespace.
var ErrNotFound = errors.New("receipt not found")

// DB defines the interface for the per-user receipt store.
type DB interface {
	// SaveReceipt saves a receipt under the user's namespace
	SaveReceipt(uid string, receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID from the user's namespace
	GetReceipt(uid, id string) (*Receipt, error)

	// ListReceipts returns the user's receipts in storage order
	ListReceipts(uid string) ([]*Receipt, error)

	// DeleteReceipt removes a receipt; deleting an absent id is a no-op
	DeleteReceipt(uid, id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Each user gets a
// nested bucket under the users bucket, so a receipt is structurally
// unreachable from any other user's namespace.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(usersBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveReceipt saves a receipt under the user's namespace
func (b *BoltDB) SaveReceipt(uid string, receipt *Receipt) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.Bucket([]byte(usersBucketName)).CreateBucketIfNotExists([]byte(uid))
		if err != nil {
			return fmt.Errorf("creating user bucket: %w", err)
		}
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return bucket.Put([]byte(receipt.ID), data)
	})
}

// GetReceipt retrieves a receipt by ID from the user's namespace
func (b *BoltDB) GetReceipt(uid, id string) (*Receipt, error) {
	var receipt *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucketName)).Bucket([]byte(uid))
		if bucket == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns the user's receipts in storage order. Receipt IDs
// are fixed-width timestamps, so bbolt's key order is insertion order.
func (b *BoltDB) ListReceipts(uid string) ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucketName)).Bucket([]byte(uid))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt from the user's namespace. Deleting an
// id that does not exist succeeds; removal is unconditional.
func (b *BoltDB) DeleteReceipt(uid, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(usersBucketName)).Bucket([]byte(uid))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
