package service

import (
	"encoding/json"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("smts")

// ErrNotFound is returned when no tree is stored under a root.
var ErrNotFound = errors.New("storage: SMT not found")

// Storage persists serialized trees in a bbolt database, keyed by their hex
// root.
type Storage struct {
	db *bbolt.DB
}

func NewStorage(dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dbPath)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create bucket")
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) StoreSMT(rootHash string, smtData json.RawMessage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(rootHash), smtData)
	})
}

func (s *Storage) GetSMT(rootHash string) (json.RawMessage, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get([]byte(rootHash))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "root %s", rootHash)
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	return json.RawMessage(data), err
}
