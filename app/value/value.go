// Package value holds the canonical in-memory form of a parsed XML document:
// primitives (always strings), ordered mappings and lists.
package value

import (
	"slices"
	"strconv"
)

type Kind int

const (
	KindPrimitive Kind = iota
	KindMapping
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	default:
		return "primitive"
	}
}

type Pair struct {
	Key   string
	Value Value
}

// Value is immutable once built. The zero Value is the empty string primitive.
type Value struct {
	kind  Kind
	text  string
	pairs []Pair
	items []Value
}

func String(s string) Value {
	return Value{kind: KindPrimitive, text: s}
}

// Mapping builds a mapping in the given order. Keys must be unique.
func Mapping(pairs ...Pair) Value {
	return Value{kind: KindMapping, pairs: slices.Clone(pairs)}
}

func List(items ...Value) Value {
	return Value{kind: KindList, items: slices.Clone(items)}
}

func KV(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsPrimitive() bool {
	return v.kind == KindPrimitive
}

// Text returns the string of a primitive and "" for containers.
func (v Value) Text() string {
	return v.text
}

func (v Value) Pairs() []Pair {
	return slices.Clone(v.pairs)
}

func (v Value) Items() []Value {
	return slices.Clone(v.items)
}

// Len is the number of entries of a mapping or list, 0 for a primitive.
func (v Value) Len() int {
	switch v.kind {
	case KindMapping:
		return len(v.pairs)
	case KindList:
		return len(v.items)
	default:
		return 0
	}
}

// Entry returns the i-th entry of a container. List entries are labelled by
// their index, the same way a mapping entry is labelled by its key.
func (v Value) Entry(i int) (Pair, bool) {
	if i < 0 || i >= v.Len() {
		return Pair{}, false
	}
	if v.kind == KindMapping {
		return v.pairs[i], true
	}
	return Pair{Key: strconv.Itoa(i), Value: v.items[i]}, true
}

func (v Value) Entries() []Pair {
	entries := make([]Pair, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		entry, _ := v.Entry(i)
		entries = append(entries, entry)
	}
	return entries
}

func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Lookup follows a chain of mapping keys, e.g. Lookup("rss", "channel").
func (v Value) Lookup(keys ...string) (Value, bool) {
	current := v
	for _, key := range keys {
		next, ok := current.Get(key)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// GetText returns the text of a primitive child, or "" when the key is
// missing or holds a container.
func (v Value) GetText(key string) (string, bool) {
	child, ok := v.Get(key)
	if !ok || !child.IsPrimitive() {
		return "", false
	}
	return child.text, true
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindMapping:
		if len(v.pairs) != len(other.pairs) {
			return false
		}
		for i := range v.pairs {
			if v.pairs[i].Key != other.pairs[i].Key || !v.pairs[i].Value.Equal(other.pairs[i].Value) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	default:
		return v.text == other.text
	}
}
