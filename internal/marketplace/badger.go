package marketplace

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

var lastIDKey = []byte("sale:last")

// BadgerStorage is a durable Storage backed by a Badger database, for
// deployments where the ledger must survive a restart.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the ledger database at path.
func OpenBadger(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening sale ledger at %s: %w", path, err)
	}
	return &BadgerStorage{db: db}, nil
}

// Close releases the underlying database.
func (b *BadgerStorage) Close() error {
	return b.db.Close()
}

// Set stores the sale and advances the last-id marker in one transaction.
func (b *BadgerStorage) Set(sale *Sale) error {
	if sale.ID == 0 {
		return ErrInvalidID
	}
	data, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("encoding sale %d: %w", sale.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(saleKey(sale.ID), data); err != nil {
			return err
		}
		last, err := readLastID(txn)
		if err != nil {
			return err
		}
		if sale.ID > last {
			return txn.Set(lastIDKey, encodeID(sale.ID))
		}
		return nil
	})
}

// Read retrieves a sale by ID. Returns ErrNotFound if absent.
func (b *BadgerStorage) Read(id uint64) (*Sale, error) {
	var sale Sale
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(saleKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sale)
		})
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// LastID returns the highest stored sale id.
func (b *BadgerStorage) LastID() (uint64, error) {
	var last uint64
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		last, err = readLastID(txn)
		return err
	})
	return last, err
}

func readLastID(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(lastIDKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var last uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt last-id marker (%d bytes)", len(val))
		}
		last = binary.BigEndian.Uint64(val)
		return nil
	})
	return last, err
}

func saleKey(id uint64) []byte {
	return []byte(fmt.Sprintf("sale:%020d", id))
}

func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}
