package cache

import (
	"testing"
	"time"
)

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	val, found := c.Get("key")
	if !found {
		t.Fatal("Expected hit after Set")
	}
	if string(val) != "value" {
		t.Errorf("Expected 'value', got %q", val)
	}

	if err := c.Delete("key"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, found := c.Get("key"); found {
		t.Error("Expected miss after Delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("key", []byte("value"), time.Millisecond); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("key"); found {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCacheRoundtrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("key", []byte("value"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	val, found := c.Get("key")
	if !found {
		t.Fatal("Expected hit after Set")
	}
	if string(val) != "value" {
		t.Errorf("Expected 'value', got %q", val)
	}

	// A second cache over the same directory sees the entry.
	reopened := NewDiskCache(c.dir, time.Minute)
	if _, found := reopened.Get("key"); !found {
		t.Error("Expected entry to survive reopen")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("key", []byte("value"), -time.Second); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, found := c.Get("key"); found {
		t.Error("Expected expired entry to be dropped")
	}
}

func TestDiskCacheClearOnMissingDir(t *testing.T) {
	c := NewDiskCache(t.TempDir()+"/never-created", time.Minute)

	if err := c.Clear(); err != nil {
		t.Errorf("Expected no error clearing missing dir, got %v", err)
	}
}

func TestLayeredCachePromotesDiskHits(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.disk.Set("key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	val, found := c.Get("key")
	if !found {
		t.Fatal("Expected disk hit through layered cache")
	}
	if string(val) != "value" {
		t.Errorf("Expected 'value', got %q", val)
	}

	if _, found := c.memory.Get("key"); !found {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestLayeredCacheDeleteRemovesBothLayers(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.Set("key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := c.Delete("key"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, found := c.memory.Get("key"); found {
		t.Error("Expected memory layer to drop the key")
	}
	if _, found := c.disk.Get("key"); found {
		t.Error("Expected disk layer to drop the key")
	}
}

func TestKeyPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
	}{
		{"page", PageKey("https://example.com/obit"), "deadonfilm:page:"},
		{"session", SessionKey("newspapers.com"), "deadonfilm:session:newspapers.com"},
		{"block", BlockKey("duckduckgo"), "deadonfilm:blocked:duckduckgo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.key) < len(tt.prefix) || tt.key[:len(tt.prefix)] != tt.prefix {
				t.Errorf("Expected key %q to start with %q", tt.key, tt.prefix)
			}
		})
	}
}

func TestPageKeyStableAndDistinct(t *testing.T) {
	a := PageKey("https://example.com/a")
	b := PageKey("https://example.com/b")

	if a != PageKey("https://example.com/a") {
		t.Error("Expected identical URLs to hash to the same key")
	}
	if a == b {
		t.Error("Expected distinct URLs to hash to distinct keys")
	}
}
