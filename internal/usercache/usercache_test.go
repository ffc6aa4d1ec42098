package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"compintel/internal/ports"
)

type fakeLookup struct {
	calls int
	id    string
	err   error
}

func (f *fakeLookup) LookupID(ctx context.Context, handle string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func cachePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "user_id_cache.json")
}

func TestHitSkipsUpstream(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{id: "12345"}
	c := New(cachePath(t), 0, lookup, nil)

	for i := 0; i < 3; i++ {
		id, err := c.LookupID(context.Background(), "decagon")
		if err != nil || id != "12345" {
			t.Fatalf("LookupID = (%q, %v)", id, err)
		}
	}
	if lookup.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", lookup.calls)
	}
}

func TestMissPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := cachePath(t)
	first := &fakeLookup{id: "12345"}
	c := New(path, 0, first, nil)
	if _, err := c.LookupID(context.Background(), "decagon"); err != nil {
		t.Fatalf("seed lookup: %v", err)
	}

	second := &fakeLookup{id: "should-not-be-used"}
	c2 := New(path, 0, second, nil)
	id, err := c2.LookupID(context.Background(), "decagon")
	if err != nil || id != "12345" {
		t.Fatalf("LookupID = (%q, %v)", id, err)
	}
	if second.calls != 0 {
		t.Fatalf("upstream calls = %d, want 0", second.calls)
	}
}

func TestRateLimitedMapsToUnavailable(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{err: ports.ErrRateLimited}
	c := New(cachePath(t), 0, lookup, nil)

	_, err := c.LookupID(context.Background(), "decagon")
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	// nothing was cached, the next cycle asks again
	lookup.err = nil
	lookup.id = "99"
	if id, err := c.LookupID(context.Background(), "decagon"); err != nil || id != "99" {
		t.Fatalf("retry = (%q, %v)", id, err)
	}
	if lookup.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", lookup.calls)
	}
}

func TestLookupErrorMapsToUnavailable(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{err: errors.New("boom")}
	c := New(cachePath(t), 0, lookup, nil)

	if _, err := c.LookupID(context.Background(), "decagon"); !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestExpiredEntryRefetched(t *testing.T) {
	t.Parallel()

	path := cachePath(t)
	stale := map[string]entry{
		"decagon": {UserID: "old", CachedAt: time.Now().Add(-31 * 24 * time.Hour).Format(time.RFC3339)},
	}
	raw, _ := json.Marshal(stale)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	lookup := &fakeLookup{id: "fresh"}
	c := New(path, 0, lookup, nil)

	id, err := c.LookupID(context.Background(), "decagon")
	if err != nil || id != "fresh" {
		t.Fatalf("LookupID = (%q, %v)", id, err)
	}
	if lookup.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", lookup.calls)
	}
}

func TestCleanupExpired(t *testing.T) {
	t.Parallel()

	path := cachePath(t)
	entries := map[string]entry{
		"stale": {UserID: "1", CachedAt: time.Now().Add(-31 * 24 * time.Hour).Format(time.RFC3339)},
		"fresh": {UserID: "2", CachedAt: time.Now().Format(time.RFC3339)},
	}
	raw, _ := json.Marshal(entries)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	c := New(path, 0, &fakeLookup{}, nil)

	if removed := c.CleanupExpired(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	survivors, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var kept map[string]entry
	if err := json.Unmarshal(survivors, &kept); err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(kept) != 1 || kept["fresh"].UserID != "2" {
		t.Fatalf("kept = %v", kept)
	}
	if !c.Cached("fresh") {
		t.Fatal("fresh entry should stay cached")
	}
	if c.Cached("stale") {
		t.Fatal("stale entry should be gone")
	}
}
