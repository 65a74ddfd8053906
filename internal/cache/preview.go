package cache

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"datadash/internal/models"
)

const previewKey = "preview:last"

// PreviewCache persists the last loaded dataset preview in a local badger
// store so a restart can show something immediately. Everything here is
// best-effort: a missing or corrupt cache is the same as an empty one.
type PreviewCache struct {
	db *badger.DB
}

// Open opens (or creates) the cache under dir.
func Open(dir string) (*PreviewCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &PreviewCache{db: db}, nil
}

// Put stores the preview. Errors are returned for logging only; callers are
// free to ignore them.
func (c *PreviewCache) Put(p models.Preview) error {
	if c == nil || c.db == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(previewKey), data)
	})
}

// Get returns the cached preview. ok is false when there is none or it
// cannot be read back; failures are never surfaced.
func (c *PreviewCache) Get() (models.Preview, bool) {
	if c == nil || c.db == nil {
		return models.Preview{}, false
	}
	var p models.Preview
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(previewKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return models.Preview{}, false
	}
	return p, true
}

// Close releases the underlying store.
func (c *PreviewCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
