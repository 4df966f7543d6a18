// package repositories provides the persistence layer for wardrobe
// collections.
//
// Both repositories share one local key-value store; each collection is a
// flat JSON-serialized list under a fixed key. Every mutating operation is a
// full read-modify-write cycle with no fine-grained locking, so callers must
// avoid overlapping writes against the same store.
package repositories

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/shared"
)

// Storage keys for the persisted collections.
const (
	articlesKey = "closet.articles"
	outfitsKey  = "closet.outfits"
)

// readCollection loads and parses a JSON list from the store. Read failures
// and malformed content degrade to an empty list; reads favor availability
// over correctness signaling.
func readCollection[T any](store shared.Store, key string, logger *log.Logger) []T {
	data, ok, err := store.Get(key)
	if err != nil {
		logger.Warn("store read failed, returning empty collection", "key", key, "err", err)
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("malformed collection, returning empty", "key", key, "err", err)
		return nil
	}
	return items
}

// writeCollection serializes and persists a JSON list. Unlike reads, write
// errors are returned; each operation decides whether to absorb or propagate
// them.
func writeCollection[T any](store shared.Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return store.Set(key, data)
}
