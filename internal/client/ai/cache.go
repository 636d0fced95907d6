package ai

// fifo is a bounded map that evicts the oldest inserted key.
type fifo[V any] struct {
	capacity int
	order    []string
	items    map[string]V
}

func newFIFO[V any](capacity int) *fifo[V] {
	return &fifo[V]{capacity: capacity, items: make(map[string]V, capacity)}
}

func (c *fifo[V]) get(key string) (V, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *fifo[V]) put(key string, v V) {
	if c.capacity <= 0 {
		return
	}
	if _, ok := c.items[key]; ok {
		c.items[key] = v
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.order = append(c.order, key)
	c.items[key] = v
}

func (c *fifo[V]) len() int { return len(c.items) }
