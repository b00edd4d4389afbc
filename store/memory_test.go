package store

import (
	"context"
	"testing"

	"github.com/rushteam/feedkit/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsNotFound(err) {
		t.Fatalf("missing key: err = %v, want not found", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get = %q err = %v, want v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsNotFound(err) {
		t.Fatalf("deleted key: err = %v, want not found", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	if err != nil {
		t.Fatalf("batch set: %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" {
		t.Fatalf("batch get = %v, want a/b only", got)
	}
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, v := range []string{"x", "y", "z"} {
		if err := s.RPush(ctx, "list", []byte(v)); err != nil {
			t.Fatalf("rpush: %v", err)
		}
	}

	all, err := s.LRange(ctx, "list", 0, -1)
	if err != nil || len(all) != 3 {
		t.Fatalf("lrange all = %v err = %v, want 3 entries", all, err)
	}
	if string(all[0]) != "x" || string(all[2]) != "z" {
		t.Fatalf("rpush order broken: %q", all)
	}

	tail, err := s.LRange(ctx, "list", -2, -1)
	if err != nil || len(tail) != 2 || string(tail[0]) != "y" {
		t.Fatalf("negative range = %q err = %v, want [y z]", tail, err)
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.ZAdd(ctx, "z", 1, "low"); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if _, err := s.ZIncrBy(ctx, "z", 5, "high"); err != nil {
		t.Fatalf("zincrby: %v", err)
	}
	if score, err := s.ZIncrBy(ctx, "z", 2, "high"); err != nil || score != 7 {
		t.Fatalf("zincrby = %v err = %v, want 7", score, err)
	}

	// ZRange 约定按 score 降序
	top, err := s.ZRange(ctx, "z", 0, 0)
	if err != nil || len(top) != 1 || top[0] != "high" {
		t.Fatalf("zrange top = %v err = %v, want [high]", top, err)
	}

	if _, err := s.ZScore(ctx, "z", "ghost"); !core.IsNotFound(err) {
		t.Fatalf("zscore missing member: err = %v, want not found", err)
	}
}
