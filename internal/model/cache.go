package model

import "sync"

// Loader produces the predictor held by a Cache.
type Loader func() (Predictor, error)

// FileLoader returns a Loader reading the artifact at path.
func FileLoader(path string) Loader {
	return func() (Predictor, error) {
		return LoadFile(path)
	}
}

// Cache holds a predictor loaded at most once for the life of the process.
// The predictor is never mutated after load, so concurrent Get calls are safe.
// A failed load is cached as well; only a restart retries it.
type Cache struct {
	once sync.Once
	load Loader
	p    Predictor
	err  error
}

// NewCache creates a cache around load. Nothing is loaded until Get.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// Get returns the cached predictor, loading it on first use.
func (c *Cache) Get() (Predictor, error) {
	c.once.Do(func() {
		c.p, c.err = c.load()
	})
	return c.p, c.err
}
