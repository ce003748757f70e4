package cache

import (
	"testing"
	"time"

	"github.com/arcana-network/roastnode/common"
)

type testValue struct {
	Name   string
	Expiry common.Expiry
}

func (v testValue) GetExpiry() common.Expiry {
	return v.Expiry
}

func TestExpirableMap_PutGet(t *testing.T) {
	m := NewExpirableMap[string, testValue](nil)

	m.Put("a", testValue{Name: "a", Expiry: common.ExpiresIn(time.Minute)})

	got, ok := m.Get("a")
	if !ok {
		t.Fatal("Should be able to retrieve a live entry")
	}
	if got.Name != "a" {
		t.Fatal("Should retrieve the stored value")
	}
	if m.Len() != 1 {
		t.Fatal("Should count the live entry")
	}
}

func TestExpirableMap_ExpiredEntryNotStored(t *testing.T) {
	m := NewExpirableMap[string, testValue](nil)

	m.Put("dead", testValue{Name: "dead", Expiry: common.ExpiresIn(-time.Second)})

	if m.Contains("dead") {
		t.Fatal("Should not store an already expired entry")
	}
}

func TestExpirableMap_SweepFiresEvictionHook(t *testing.T) {
	evicted := make(map[string]testValue)
	m := NewExpirableMap[string, testValue](func(k string, v testValue) {
		evicted[k] = v
	})

	m.Put("short", testValue{Name: "short", Expiry: common.ExpiresIn(10 * time.Millisecond)})
	m.Put("long", testValue{Name: "long", Expiry: common.ExpiresIn(time.Minute)})

	time.Sleep(30 * time.Millisecond)

	if m.Contains("short") {
		t.Fatal("Should have evicted the expired entry on access")
	}
	if len(evicted) != 1 {
		t.Fatalf("Should have fired the eviction hook once, got %d", len(evicted))
	}
	if evicted["short"].Name != "short" {
		t.Fatal("Should pass the evicted value to the hook")
	}
	if !m.Contains("long") {
		t.Fatal("Should keep the live entry")
	}
}

func TestExpirableMap_RemoveDoesNotFireHook(t *testing.T) {
	fired := 0
	m := NewExpirableMap[string, testValue](func(string, testValue) {
		fired++
	})

	m.Put("a", testValue{Name: "a", Expiry: common.ExpiresIn(time.Minute)})
	m.Remove("a")

	if fired != 0 {
		t.Fatal("Should not fire the eviction hook on explicit removal")
	}
	if m.Contains("a") {
		t.Fatal("Should have removed the entry")
	}
}

func TestExpirableMap_StableAcrossNonExpiringReads(t *testing.T) {
	m := NewExpirableMap[string, testValue](nil)
	m.Put("a", testValue{Name: "a", Expiry: common.ExpiresIn(time.Minute)})
	m.Put("b", testValue{Name: "b", Expiry: common.ExpiresIn(time.Minute)})

	first := m.Values()
	second := m.Values()
	if len(first) != 2 || len(second) != 2 {
		t.Fatal("Should return the same value set under back to back reads")
	}
}

func TestExpirableMap_Range(t *testing.T) {
	m := NewExpirableMap[string, testValue](nil)
	m.Put("a", testValue{Name: "a", Expiry: common.ExpiresIn(time.Minute)})
	m.Put("b", testValue{Name: "b", Expiry: common.ExpiresIn(time.Minute)})

	seen := 0
	m.Range(func(k string, v testValue) bool {
		seen++
		return seen < 1
	})
	if seen != 1 {
		t.Fatal("Should stop ranging when fn returns false")
	}
}
