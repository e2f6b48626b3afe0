package usage

import (
	"strconv"
	"sync/atomic"
)

// HitCounter is a concurrency-safe hit tally.
type HitCounter struct {
	n atomic.Int64
}

func (c *HitCounter) Inc() { c.n.Add(1) }

func (c *HitCounter) Add(delta int64) { c.n.Add(delta) }

func (c *HitCounter) Value() int64 { return c.n.Load() }

// MarshalJSON renders the counter as a plain number.
func (c *HitCounter) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(c.Value(), 10)), nil
}
