package rank

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/rushteam/feedkit/catalog"
	"github.com/rushteam/feedkit/core"
)

func diversityFixture(total int, category string) ([]*core.Candidate, *catalog.MemoryCatalog) {
	cat := catalog.NewMemoryCatalog()
	cands := make([]*core.Candidate, 0, total)
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("%s-%d", category, i)
		cat.Put(&core.ItemFeatures{ItemID: id, Category: category, QualityTier: 2})
		cands = append(cands, core.NewCandidate(id, core.StrategyContent, 1.0))
	}
	return cands, cat
}

func TestDiversityCategoryCap(t *testing.T) {
	cands, cat := diversityFixture(12, "Gaming")
	// 固定随机源：rand.New(rand.NewSource(1)) 的首个 Float64 > 0.3，
	// 但这里用一个永不放行的源更直白
	node := &DiversityNode{Catalog: cat, Rand: rand.New(rand.NewSource(42))}

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, cands)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(out) < diversityCategoryCap {
		t.Fatalf("result = %d, cap quota must always pass", len(out))
	}
	// 超额部分走概率闸门，总量绝不会超过候选数
	if len(out) > len(cands) {
		t.Fatalf("result = %d items out of %d candidates", len(out), len(cands))
	}
	// 前 5 个免检名额必须按原顺序保留
	for i := 0; i < diversityCategoryCap; i++ {
		if out[i].ID != cands[i].ID {
			t.Fatalf("quota item %d = %s, want %s", i, out[i].ID, cands[i].ID)
		}
	}
}

func TestDiversityIdempotent(t *testing.T) {
	cands, cat := diversityFixture(20, "Gaming")
	node := &DiversityNode{Catalog: cat, Rand: rand.New(rand.NewSource(7))}

	first, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, cands)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// 再跑一遍：已过滤列表应原样通过（放行过的候选带标记）
	second, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, first)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("diversity not idempotent: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("diversity not idempotent at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestDiversityMultipleCategoriesUntouched(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	var cands []*core.Candidate
	for i, category := range []string{"Gaming", "Music", "Tech"} {
		for j := 0; j < 3; j++ {
			id := fmt.Sprintf("c%d-%d", i, j)
			cat.Put(&core.ItemFeatures{ItemID: id, Category: category, QualityTier: 2})
			cands = append(cands, core.NewCandidate(id, core.StrategyContent, 1.0))
		}
	}

	node := &DiversityNode{Catalog: cat, Rand: rand.New(rand.NewSource(1))}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, cands)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	// 每类都在免检名额内，不应有任何剔除
	if len(out) != len(cands) {
		t.Fatalf("result = %d, want %d (all within per-category quota)", len(out), len(cands))
	}
}
