// Package normalize provides the id-list + item-map shape used throughout
// the API: every collection is addressed by key with the arrival order kept
// in IDs.
package normalize

// Collection holds items keyed by id alongside the ids in arrival order.
type Collection[T any] struct {
	IDs   []string     `json:"ids"`
	Items map[string]T `json:"items"`
}

// NewCollection returns an empty, non-nil collection.
func NewCollection[T any]() Collection[T] {
	return Collection[T]{
		IDs:   []string{},
		Items: map[string]T{},
	}
}

// Add appends the item under the given key. A duplicate key overwrites the
// item without repeating the id.
func (c *Collection[T]) Add(id string, item T) {
	if c.Items == nil {
		c.Items = map[string]T{}
	}
	if _, exists := c.Items[id]; !exists {
		c.IDs = append(c.IDs, id)
	}
	c.Items[id] = item
}

// Has reports whether the collection contains the key.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.Items[id]
	return ok
}

// Get returns the item for the key.
func (c *Collection[T]) Get(id string) (T, bool) {
	item, ok := c.Items[id]
	return item, ok
}

// Len returns the number of distinct items.
func (c *Collection[T]) Len() int {
	return len(c.IDs)
}

// Normalize converts a slice into a Collection keyed by keyFn, preserving
// the slice order in IDs.
func Normalize[T any](rows []T, keyFn func(T) string) Collection[T] {
	collection := NewCollection[T]()
	for _, row := range rows {
		collection.Add(keyFn(row), row)
	}
	return collection
}
