// Package badgerdb is an embedded key/value schedule store for single-node
// deployments that do not want a SQL database.
package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
)

// DB wraps a badger database and its value-log GC loop.
type DB struct {
	db       *badger.DB
	cancelGC func()
	wg       sync.WaitGroup
}

// Open opens (or creates) the badger database in dir.
func Open(dir string) (*DB, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at path %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &DB{db: db, cancelGC: cancel}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for b.db.RunValueLogGC(0.5) == nil && ctx.Err() == nil {
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return b, nil
}

// Close stops the GC loop and closes the database.
func (b *DB) Close() error {
	b.cancelGC()
	b.wg.Wait()
	return b.db.Close()
}

// keyPrefix builds "<kind>:" followed by every segment as "<len>:<segment>".
// Length prefixes keep keys unambiguous whatever the segments contain.
func keyPrefix(kind string, segments ...string) []byte {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(':')
	for _, s := range segments {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return []byte(b.String())
}

func put(tx *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to JSON marshal %s: %w", key, err)
	}
	return tx.Set(key, data)
}

func get(tx *badger.Txn, key []byte, v interface{}) error {
	item, err := tx.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, v); err != nil {
			return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
		}
		return nil
	})
}

// scan calls decode for every value stored under prefix.
func scan(tx *badger.Txn, prefix []byte, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := tx.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if err := item.Value(decode); err != nil {
			return fmt.Errorf("failed to decode value for key %s: %w", string(item.Key()), err)
		}
	}
	return nil
}
