package artifact

import (
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/infinivision/buildlocks/pkg/meta"
)

type badgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage returns a artifact storage using badger
func NewBadgerStorage(dir string) (Storage, error) {
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.ValueLogFileSize = 1024 * 1024 * 10
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &badgerStorage{db: db}, nil
}

func badgerKey(buildID uint64, path string) []byte {
	return []byte(fmt.Sprintf("/builds/%d/%s", buildID, path))
}

func (s *badgerStorage) Write(buildID uint64, path string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(buildID, path), data)
	})
}

func (s *badgerStorage) Read(buildID uint64, path string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(buildID, path))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return meta.ErrArtifactNotFound
			}

			return err
		}

		data, err := item.Value()
		if err != nil {
			return err
		}

		value = append([]byte(nil), data...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *badgerStorage) Remove(buildID uint64, path string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(buildID, path))
	})
}

func (s *badgerStorage) Close() error {
	return s.db.Close()
}
