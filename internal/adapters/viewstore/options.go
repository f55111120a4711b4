package viewstore

// Option applies a configuration option to a Store.
type Option func(*config)

type config struct {
	maxSize int
}

// WithMaxSize bounds the number of views kept in memory. When the store is
// full the least recently used view is evicted. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}
