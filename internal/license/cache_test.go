package license

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheComputesOnce(t *testing.T) {
	var c Cache
	var calls atomic.Int32
	lookup := func(_ context.Context, k Key) (string, error) {
		calls.Add(1)
		return "Apache-2.0", nil
	}

	key := Key{Ecosystem: "npm", Name: "left-pad", Version: "1.3.0"}
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get(context.Background(), key, lookup)
			if err != nil {
				t.Error(err)
			}
			if got != "Apache-2.0" {
				t.Errorf("got %q, want %q", got, "Apache-2.0")
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("lookup called %d times, want 1", n)
	}
}

func TestCacheDistinctKeys(t *testing.T) {
	var c Cache
	lookup := func(_ context.Context, k Key) (string, error) { return k.Name, nil }

	a, err := c.Get(context.Background(), Key{Ecosystem: "npm", Name: "a"}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Get(context.Background(), Key{Ecosystem: "npm", Name: "b"}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected distinct values for distinct keys, got %q == %q", a, b)
	}
}
