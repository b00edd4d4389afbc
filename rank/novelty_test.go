package rank

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/feedkit/catalog"
	"github.com/rushteam/feedkit/core"
)

func TestNoveltyBonusDelta(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "fresh", Category: "Gaming", QualityTier: 2, PublishedAt: now})
	cat.Put(&core.ItemFeatures{ItemID: "stale", Category: "Gaming", QualityTier: 2, PublishedAt: now.AddDate(0, 0, -31)})

	fresh := core.NewCandidate("fresh", core.StrategyContent, 1.0)
	stale := core.NewCandidate("stale", core.StrategyContent, 1.0)
	fresh.Score, stale.Score = 1.0, 1.0

	node := &NoveltyNode{Catalog: cat, Now: func() time.Time { return now }}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, []*core.Candidate{fresh, stale})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// 31 天前发布：加成为 0；刚发布：满额 0.3。分差应恰为 0.3。
	if got := out[1].NoveltyBonus; got != 0 {
		t.Fatalf("stale novelty = %v, want 0", got)
	}
	if got := out[0].NoveltyBonus; math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("fresh novelty = %v, want 0.3", got)
	}
	if delta := out[0].Score - out[1].Score; math.Abs(delta-0.3) > 1e-9 {
		t.Fatalf("score delta = %v, want exactly the novelty bonus 0.3", delta)
	}
}

func TestFreshnessBonusFromEngagement(t *testing.T) {
	now := time.Now()
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "hot", Category: "Gaming", QualityTier: 2, PublishedAt: now.AddDate(0, 0, -60)})
	ctx := context.Background()
	cat.IncrPopularity(ctx, "hot", 500)

	c := core.NewCandidate("hot", core.StrategyContent, 1.0)
	node := &NoveltyNode{Catalog: cat, Now: func() time.Time { return now }}
	out, err := node.Process(ctx, &core.RecommendContext{UserID: "u1"}, []*core.Candidate{c})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// min(1, 500/1000) × 0.2 = 0.1
	if got := out[0].FreshnessBonus; math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("freshness = %v, want 0.1", got)
	}
}

func TestTopNDedupAndTruncate(t *testing.T) {
	a1 := core.NewCandidate("a", core.StrategyCollaborative, 1)
	a2 := core.NewCandidate("a", core.StrategyContent, 1)
	b := core.NewCandidate("b", core.StrategyContent, 1)
	c := core.NewCandidate("c", core.StrategyContent, 1)

	node := &TopNNode{N: 2}
	out, err := node.Process(context.Background(), nil, []*core.Candidate{a1, a2, b, c})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("out = %v, want [a b] (first occurrence wins, truncated to 2)", out)
	}
	if out[0].Strategy != core.StrategyCollaborative {
		t.Fatalf("dedup must keep the first (highest-ranked) occurrence")
	}
}
