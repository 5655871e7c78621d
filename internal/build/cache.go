package build

import (
	"container/list"
	"fmt"
)

// DefaultMemoryBudget is the cache's eviction ceiling. Eviction runs
// while accounted memory exceeds the budget, skipping pinned objects.
const DefaultMemoryBudget = 4 * 1024 * 1024 * 1024 // 4 GiB

// cache indexes the owned population of tiles and rasters two ways: a
// key map for lookup and an insertion-ordered list doubling as the LRU
// (head = least recent). A separate null set memoizes tiles known to be
// empty so sparse regions are never re-probed.
//
// Invariants: keys are unique in the map; map and list agree on
// membership in both directions; null-set keys are never in the map.
type cache struct {
	objMap  map[string]*list.Element
	objList *list.List
	nullSet map[string]struct{}

	memBytes int64
	budget   int64
}

func newCache(budget int64) *cache {
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}
	return &cache{
		objMap:  make(map[string]*list.Element),
		objList: list.New(),
		nullSet: make(map[string]struct{}),
		budget:  budget,
	}
}

// find looks up an object and bumps it to the most-recent position.
func (c *cache) find(key string) *Object {
	elem, ok := c.objMap[key]
	if !ok {
		return nil
	}
	c.objList.MoveToBack(elem)
	return elem.Value.(*Object)
}

// add appends an object at the most-recent position and records it in
// both indices.
func (c *cache) add(obj *Object) {
	key := obj.Key()
	if _, ok := c.objMap[key]; ok {
		panic(fmt.Sprintf("duplicate cache key %s", key))
	}
	elem := c.objList.PushBack(obj)
	c.objMap[key] = elem
	c.memBytes += obj.Bytes()
}

// evict removes an object from both indices. The object must be
// unpinned.
func (c *cache) evict(elem *list.Element) {
	obj := elem.Value.(*Object)
	if obj.refcount != 0 {
		panic(fmt.Sprintf("evicting pinned object %s (refcount=%d)",
			obj.Key(), obj.refcount))
	}
	c.objList.Remove(elem)
	delete(c.objMap, obj.Key())
	c.memBytes -= obj.Bytes()
}

// evictKey evicts the object under key if present. Like evict, it panics
// when that object is pinned.
func (c *cache) evictKey(key string) {
	if elem, ok := c.objMap[key]; ok {
		c.evict(elem)
	}
}

// trim walks from the least-recent end evicting unpinned objects until
// accounted memory is back under budget or nothing more can go.
func (c *cache) trim() {
	elem := c.objList.Front()
	for elem != nil {
		if c.memBytes <= c.budget {
			return
		}
		next := elem.Next()
		if elem.Value.(*Object).refcount == 0 {
			c.evict(elem)
		}
		elem = next
	}
}

// addNull records a tile as known empty.
func (c *cache) addNull(x, y, zoom int) {
	c.nullSet[nullKey(x, y, zoom)] = struct{}{}
}

// isNull reports whether a tile is memoized as empty.
func (c *cache) isNull(x, y, zoom int) bool {
	_, ok := c.nullSet[nullKey(x, y, zoom)]
	return ok
}
