package records

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/alphabill-org/admission/types"
)

const (
	DefaultSize = 100_000
	DefaultTTL  = 180 * time.Second
)

/*
Cache remembers the ids of transactions submitted to the consensus platform
for the duration of the maximum transaction validity window. Transaction with
id already in the cache is a duplicate.
*/
type Cache struct {
	ids *expirable.LRU[types.TransactionID, time.Time]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ids: expirable.NewLRU[types.TransactionID, time.Time](size, nil, ttl)}
}

// AddPreConsensus records that the transaction was handed to the platform.
func (c *Cache) AddPreConsensus(id types.TransactionID) {
	c.ids.Add(id, time.Now())
}

func (c *Cache) IsDuplicate(id types.TransactionID) bool {
	_, ok := c.ids.Peek(id)
	return ok
}

// Forget removes the id, used when platform drops the transaction without
// handling it.
func (c *Cache) Forget(id types.TransactionID) {
	c.ids.Remove(id)
}

func (c *Cache) Len() int {
	return c.ids.Len()
}
