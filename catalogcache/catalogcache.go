// Package catalogcache is an in-memory, swappable cache of the policy a
// real director would otherwise load from its configuration parser and
// catalog database (§6's "job definition loading... external
// collaborator"). It never persists queue state — jobs, their status,
// and their position in the lists live only in the director package —
// this package only answers policy questions the admission controller
// and reschedule engine ask.
package catalogcache

import (
	"sync"

	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
)

// Cache holds job-definition policy plus per-client and per-storage
// concurrency limits. Safe for concurrent use; a director built with one
// Cache can have definitions added or limits changed while running.
type Cache struct {
	mu sync.RWMutex

	definitions map[id.JobDefID]jcr.Definition
	clientMax   map[id.ClientID]int
	storageMax  map[id.StorageID]int
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		definitions: make(map[id.JobDefID]jcr.Definition),
		clientMax:   make(map[id.ClientID]int),
		storageMax:  make(map[id.StorageID]int),
	}
}

// PutDefinition registers or replaces a job definition's policy.
func (c *Cache) PutDefinition(def jcr.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions[def.ID] = def
}

// Definition looks up a job definition's policy.
func (c *Cache) Definition(id id.JobDefID) (jcr.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.definitions[id]
	return d, ok
}

// SetClientMax sets a client's maximum concurrent job count.
func (c *Cache) SetClientMax(client id.ClientID, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientMax[client] = max
}

// ClientMax returns a client's maximum concurrent job count, or 0 if
// never set.
func (c *Cache) ClientMax(client id.ClientID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientMax[client]
}

// SetStorageMax sets a storage resource's maximum concurrent job count.
func (c *Cache) SetStorageMax(storage id.StorageID, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storageMax[storage] = max
}

// StorageMax returns a storage resource's maximum concurrent job count,
// or 0 if never set.
func (c *Cache) StorageMax(storage id.StorageID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storageMax[storage]
}
