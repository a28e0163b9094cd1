// Package bundle provides Bundle, the ordered string-keyed payload carried by
// messages.
//
// A Bundle has no concurrency contract of its own. It is owned by whichever
// message or caller holds it, and exactly one owner mutates it at a time.
package bundle

import (
	"container/list"
	"fmt"
	"strings"
)

type entry struct {
	key   string
	value any
}

// Bundle is a mapping from unique string keys to values that iterates in
// insertion order. Re-putting an existing key replaces its value in place.
type Bundle struct {
	index map[string]*list.Element
	order *list.List
}

// New constructs an empty Bundle.
func New() *Bundle {
	return WithCapacity(0)
}

// WithCapacity constructs an empty Bundle sized for roughly capacity entries.
func WithCapacity(capacity int) *Bundle {
	if capacity < 0 {
		capacity = 0
	}
	return &Bundle{
		index: make(map[string]*list.Element, capacity),
		order: list.New(),
	}
}

// Copy constructs a Bundle holding the mappings of other, in the same order.
// Values are copied by reference. A nil other yields an empty Bundle.
func Copy(other *Bundle) *Bundle {
	if other == nil {
		return New()
	}
	b := WithCapacity(other.Size())
	b.PutAll(other)
	return b
}

// Clone returns a shallow copy: a new mapping whose entries reference the same
// values as b.
func (b *Bundle) Clone() *Bundle {
	return Copy(b)
}

func (b *Bundle) lazyInit() {
	if b.index == nil {
		b.index = make(map[string]*list.Element)
		b.order = list.New()
	}
}

// Put maps key to value.
func (b *Bundle) Put(key string, value any) {
	b.lazyInit()
	if el, ok := b.index[key]; ok {
		el.Value.(*entry).value = value
		return
	}
	b.index[key] = b.order.PushBack(&entry{key: key, value: value})
}

// Get returns the value mapped to key. A missing key is not an error.
func (b *Bundle) Get(key string) (any, bool) {
	if b == nil || b.index == nil {
		return nil, false
	}
	el, ok := b.index[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).value, true
}

// GetString returns the string mapped to key, or "" and false when the key is
// missing or holds another type.
func (b *Bundle) GetString(key string) (string, bool) {
	v, ok := b.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the int mapped to key.
func (b *Bundle) GetInt(key string) (int, bool) {
	v, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int)
	return i, ok
}

// GetBool returns the bool mapped to key.
func (b *Bundle) GetBool(key string) (bool, bool) {
	v, ok := b.Get(key)
	if !ok {
		return false, false
	}
	x, ok := v.(bool)
	return x, ok
}

// Remove deletes any entry with the given key.
func (b *Bundle) Remove(key string) {
	if b == nil || b.index == nil {
		return
	}
	if el, ok := b.index[key]; ok {
		b.order.Remove(el)
		delete(b.index, key)
	}
}

// ContainsKey reports whether key is mapped.
func (b *Bundle) ContainsKey(key string) bool {
	if b == nil || b.index == nil {
		return false
	}
	_, ok := b.index[key]
	return ok
}

// Size returns the number of mappings.
func (b *Bundle) Size() int {
	if b == nil || b.index == nil {
		return 0
	}
	return len(b.index)
}

// IsEmpty reports whether the bundle holds no mappings.
func (b *Bundle) IsEmpty() bool {
	return b.Size() == 0
}

// Clear removes all mappings.
func (b *Bundle) Clear() {
	if b == nil || b.index == nil {
		return
	}
	clear(b.index)
	b.order.Init()
}

// PutAll merges the mappings of other into b, overwriting on key collision.
// New keys are appended in other's order.
func (b *Bundle) PutAll(other *Bundle) {
	if other == nil || other.index == nil {
		return
	}
	for el := other.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		b.Put(e.key, e.value)
	}
}

// Keys returns the keys in insertion order.
func (b *Bundle) Keys() []string {
	if b == nil || b.index == nil {
		return nil
	}
	keys := make([]string, 0, len(b.index))
	for el := b.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// Range calls fn for each mapping in insertion order until fn returns false.
func (b *Bundle) Range(fn func(key string, value any) bool) {
	if b == nil || b.index == nil {
		return
	}
	for el := b.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (b *Bundle) String() string {
	var sb strings.Builder
	sb.WriteString("Bundle[{")
	first := true
	b.Range(func(key string, value any) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s=%v", key, value)
		return true
	})
	sb.WriteString("}]")
	return sb.String()
}
