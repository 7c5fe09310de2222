package cache

import (
	"github.com/dgraph-io/ristretto"
	ristrettoStore "github.com/eko/gocache/store/ristretto/v4"
)

// NewStore builds the in-process cache backing short-lived query contexts,
// like the followed-id set the feed aggregator keeps per viewer.
func NewStore() (*ristrettoStore.RistrettoStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     10 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return ristrettoStore.NewRistretto(cache), nil
}
