package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeSource struct {
	payloads map[string]string
	calls    atomic.Int64
	err      error
}

func (f *fakeSource) Get(_ context.Context, id string) (string, bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", false, f.err
	}
	uri, ok := f.payloads[id]
	return uri, ok, nil
}

func uriOfLen(n int) string {
	return strings.Repeat("x", n)
}

func TestPutEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(30, nil, nil)
	c.Put("a", uriOfLen(10))
	c.Put("b", uriOfLen(10))
	c.Put("c", uriOfLen(10))

	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Put("d", uriOfLen(10))

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b (least recently used) to be evicted")
	}
	for _, id := range []string{"a", "c", "d"} {
		if _, ok := c.Get(id); !ok {
			t.Fatalf("expected %s to be retained", id)
		}
	}
	stats := c.Stats()
	if stats.SizeBytes != 30 || stats.Entries != 3 || stats.Evictions != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestPutRejectsEntryLargerThanCapacity(t *testing.T) {
	c := NewCache(10, nil, nil)
	c.Put("small", uriOfLen(5))
	c.Put("huge", uriOfLen(11))

	if _, ok := c.Get("huge"); ok {
		t.Fatal("oversized entry must not be cached")
	}
	if _, ok := c.Get("small"); !ok {
		t.Fatal("existing entries must not be evicted for a rejected entry")
	}
	if c.Stats().Rejected != 1 {
		t.Fatalf("expected one rejection, got %d", c.Stats().Rejected)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	c := NewCache(20, nil, nil)
	c.Put("a", uriOfLen(10))
	c.Put("a", uriOfLen(4))

	uri, ok := c.Get("a")
	if !ok || len(uri) != 4 {
		t.Fatalf("expected replaced entry, got %q", uri)
	}
	if c.Stats().SizeBytes != 4 {
		t.Fatalf("expected size 4, got %d", c.Stats().SizeBytes)
	}
}

func TestCacheNeverExceedsCapacity(t *testing.T) {
	const capacity = 100
	c := NewCache(capacity, nil, nil)
	for i := 0; i < 200; i++ {
		c.Put(fmt.Sprintf("id-%d", i), uriOfLen((i*37)%60+1))
		if i%3 == 0 {
			c.Get(fmt.Sprintf("id-%d", i/2))
		}
		if size := c.Stats().SizeBytes; size > capacity {
			t.Fatalf("size %d exceeds capacity after put %d", size, i)
		}
	}
}

func TestSetCapacityShrinks(t *testing.T) {
	c := NewCache(30, nil, nil)
	c.Put("a", uriOfLen(10))
	c.Put("b", uriOfLen(10))
	c.Put("c", uriOfLen(10))

	c.SetCapacity(15)
	stats := c.Stats()
	if stats.Entries != 1 || stats.SizeBytes != 10 || stats.CapacityBytes != 15 {
		t.Fatalf("unexpected stats after shrink %#v", stats)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("most recent entry should survive the shrink")
	}
}

func TestClearAndRemove(t *testing.T) {
	c := NewCache(100, nil, nil)
	c.Put("a", uriOfLen(10))
	c.Put("b", uriOfLen(10))

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be removed")
	}
	c.Clear()
	if stats := c.Stats(); stats.Entries != 0 || stats.SizeBytes != 0 {
		t.Fatalf("expected empty cache, got %#v", stats)
	}
}

func TestIDsMatchRegardlessOfCase(t *testing.T) {
	src := &fakeSource{payloads: map[string]string{"abc123": "uri"}}
	c := NewCache(100, src, nil)

	if _, found, err := c.EnsureCached(context.Background(), " ABC123 "); err != nil || !found {
		t.Fatalf("ensure cached: found=%v err=%v", found, err)
	}
	if _, ok := c.Get("abc123"); !ok {
		t.Fatal("expected entry stored under the lowercase id")
	}

	c.Remove("AbC123")
	if _, ok := c.Get("ABC123"); ok {
		t.Fatal("expected entry removed by a differently cased id")
	}
	if stats := c.Stats(); stats.Entries != 0 || stats.SizeBytes != 0 {
		t.Fatalf("expected empty cache, got %#v", stats)
	}
}

func TestEnsureCached(t *testing.T) {
	src := &fakeSource{payloads: map[string]string{"abc": "data:audio/mpeg;base64,XYZ"}}
	c := NewCache(1024, src, nil)
	ctx := context.Background()

	uri, ok, err := c.EnsureCached(ctx, "abc")
	if err != nil || !ok || uri != "data:audio/mpeg;base64,XYZ" {
		t.Fatalf("ensure cached: uri=%q ok=%v err=%v", uri, ok, err)
	}
	if _, ok, _ := c.EnsureCached(ctx, "abc"); !ok {
		t.Fatal("expected hit")
	}
	if src.calls.Load() != 1 {
		t.Fatalf("expected one source read, got %d", src.calls.Load())
	}

	uri, ok, err = c.EnsureCached(ctx, "missing")
	if err != nil || ok || uri != "" {
		t.Fatalf("expected soft absence, got uri=%q ok=%v err=%v", uri, ok, err)
	}
}

func TestEnsureCachedPropagatesSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	c := NewCache(1024, src, nil)

	if _, _, err := c.EnsureCached(context.Background(), "abc"); err == nil {
		t.Fatal("expected source error")
	}
	if _, ok := c.Get("abc"); ok {
		t.Fatal("failed load must not populate the cache")
	}
}

func TestEnsureCachedConcurrent(t *testing.T) {
	src := &fakeSource{payloads: map[string]string{"abc": "uri"}}
	c := NewCache(1024, src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := c.EnsureCached(context.Background(), "abc"); err != nil || !ok {
				t.Errorf("ensure cached: ok=%v err=%v", ok, err)
			}
		}()
	}
	wg.Wait()
	if c.Stats().Entries != 1 {
		t.Fatalf("expected one entry, got %d", c.Stats().Entries)
	}
}

func TestCapacityForMaxFileSize(t *testing.T) {
	tests := []struct {
		mb   int
		want int64
	}{
		{mb: 1, want: MinCapacityMB * mib},
		{mb: 500, want: MaxCapacityMB * mib},
	}
	for _, tt := range tests {
		if got := CapacityForMaxFileSize(tt.mb); got != tt.want {
			t.Fatalf("CapacityForMaxFileSize(%d) = %d, want %d", tt.mb, got, tt.want)
		}
	}

	// 15 MiB * 1.37 * 4 = 82.2 MiB
	got := CapacityForMaxFileSize(15)
	if got <= 82*mib || got >= 83*mib {
		t.Fatalf("CapacityForMaxFileSize(15) = %d, want about 82.2 MiB", got)
	}
}
