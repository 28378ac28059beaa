package stmtcache

import (
	"reflect"
	"testing"
)

func TestLRUEvictionOrder(t *testing.T) {
	var evicted []string
	c := New[int](2, func(key string, _ int) { evicted = append(evicted, key) })

	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3) // evicts "a" (LRU)

	if !reflect.DeepEqual(evicted, []string{"a"}) {
		t.Fatalf("expected a evicted, got %v", evicted)
	}
	if c.Contains("a") {
		t.Fatal("a should have been evicted")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Fatal("b and c should remain")
	}
}

func TestAccessSequenceRetainsKMostRecentlyUsed(t *testing.T) {
	c := New[int](2, nil)
	seq := []string{"a", "b", "a", "c"} // after this, most-recent-distinct-2 = {c, a}
	for i, k := range seq {
		c.Insert(k, i)
		if _, ok := c.Get(k); !ok {
			// Get again to simulate access after any eviction from Insert
		}
	}
	keys := c.Keys()
	want := map[string]bool{"a": true, "c": true}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys retained, got %v", keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Fatalf("unexpected retained key %q, want set %v", k, want)
		}
	}
}

func TestDisabledCacheNeverRetains(t *testing.T) {
	c := New[int](0, nil)
	c.Insert("a", 1)
	if c.Len() != 0 {
		t.Fatal("capacity-0 cache must never retain entries")
	}
}

func TestGetMarksMostRecentlyUsed(t *testing.T) {
	c := New[int](2, nil)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Get("a") // touch a, making b the LRU
	c.Insert("c", 3)
	if c.Contains("b") {
		t.Fatal("b should have been evicted as LRU after a was touched")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Fatal("a and c should remain")
	}
}
