package cache

import (
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/store"
	ristrettoCache "github.com/eko/gocache/store/ristretto/v4"
)

var S store.StoreInterface

// NewStore builds the process wide in-memory cache store.
func NewStore() (store.StoreInterface, error) {
	ris, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return ristrettoCache.NewRistretto(ris), nil
}

func Initialize() error {
	out, err := NewStore()
	if err != nil {
		return err
	}
	S = out
	return nil
}
