package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/xraph/courseprice/types"
)

func key(id string) Key {
	return Key{CanonicalID: id, Signature: "abc", AsOf: types.MustParseDate("2024-01-15")}
}

func TestKeyString(t *testing.T) {
	if got := key("42").String(); got != "42:abc:2024-01-15" {
		t.Errorf("got %q", got)
	}
}

func TestGetOrCompute(t *testing.T) {
	c := New()
	calls := 0
	compute := func() (types.Money, error) {
		calls++
		return types.USD(12000), nil
	}

	price, hit, err := c.GetOrCompute(key("1"), compute)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first call should miss")
	}
	if !price.Equal(types.USD(12000)) {
		t.Errorf("price: got %v", price)
	}

	price, hit, err = c.GetOrCompute(key("1"), compute)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second call should hit")
	}
	if !price.Equal(types.USD(12000)) {
		t.Errorf("price: got %v", price)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	other := key("1")
	other.AsOf = types.MustParseDate("2024-01-16")
	if _, hit, _ := c.GetOrCompute(other, compute); hit {
		t.Error("different as-of date must miss")
	}
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
}

func TestGetOrComputeErrorNotStored(t *testing.T) {
	c := New()
	boom := errors.New("boom")

	if _, _, err := c.GetOrCompute(key("1"), func() (types.Money, error) {
		return types.Money{}, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed computation was stored")
	}
}

func TestGetOrComputeConcurrent(t *testing.T) {
	c := New()
	var calls, hits atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			price, hit, err := c.GetOrCompute(key("1"), func() (types.Money, error) {
				calls.Add(1)
				<-release
				return types.USD(500), nil
			})
			if err != nil || !price.Equal(types.USD(500)) {
				t.Errorf("got %v, %v", price, err)
			}
			if hit {
				hits.Add(1)
			}
		}()
	}
	close(release)
	wg.Wait()

	// Late arrivals may see the memo, early ones share the flight; either
	// way the value is computed a small number of times and never torn.
	if calls.Load() < 1 {
		t.Error("compute never ran")
	}
	// Every caller that did not compute received someone else's value.
	if got := hits.Load() + calls.Load(); got != 16 {
		t.Errorf("hits + computations: got %d, want 16", got)
	}
	if got, ok := c.Get(key("1")); !ok || !got.Equal(types.USD(500)) {
		t.Errorf("memo: got %v, %v", got, ok)
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Set(key("1"), types.USD(1))
	c.Clear()
	if _, ok := c.Get(key("1")); ok {
		t.Error("expected empty cache after Clear")
	}
}

func TestStats(t *testing.T) {
	s := NewStats()
	s.RecordHit("a")
	s.RecordHit("a")
	s.RecordHit("b")
	s.RecordComputation()
	s.RecordGuard("future_start")

	snap := s.Snapshot()
	if snap.CacheHits["a"] != 2 || snap.CacheHits["b"] != 1 {
		t.Errorf("hits: %v", snap.CacheHits)
	}
	if snap.TotalHits() != 3 {
		t.Errorf("TotalHits: got %d", snap.TotalHits())
	}
	if snap.PriceComputations != 1 {
		t.Errorf("computations: got %d", snap.PriceComputations)
	}
	if snap.TotalGuards() != 1 || snap.GuardTriggered["future_start"] != 1 {
		t.Errorf("guards: %v", snap.GuardTriggered)
	}

	// Snapshots are copies.
	snap.CacheHits["a"] = 99
	if s.Snapshot().CacheHits["a"] != 2 {
		t.Error("snapshot shares storage with Stats")
	}

	s.Reset()
	snap = s.Snapshot()
	if snap.TotalHits() != 0 || snap.PriceComputations != 0 || snap.TotalGuards() != 0 {
		t.Errorf("expected zero counters after Reset, got %+v", snap)
	}
}
