package recall

import (
	"context"
	"testing"

	"github.com/rushteam/feedkit/catalog"
	"github.com/rushteam/feedkit/core"
)

func TestContentStrongAffinityPassesThreshold(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "g1", Category: "Gaming", Tags: []string{"esports"}, DurationSeconds: 600, QualityTier: 3})

	p := core.NewUserProfile("u1")
	p.CategoryAffinity["Gaming"] = core.CategoryAffinity{Strength: 0.9}
	p.TagAffinity["esports"] = 0.8

	r := &Content{Catalog: cat}
	cands, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: p})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "g1" {
		t.Fatalf("expected g1 in candidate set, got %v", cands)
	}
	// 0.3×0.9 + 0.3×0.8 = 0.51 已超过阈值，其余项只会增加分数
	if cands[0].RawScore < ContentScoreThreshold {
		t.Fatalf("score = %v, want >= %v", cands[0].RawScore, ContentScoreThreshold)
	}
}

func TestContentWeakAffinityDiscarded(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "m1", Category: "Music", Tags: []string{"live"}, DurationSeconds: 300, QualityTier: 1})

	p := core.NewUserProfile("u1")
	p.CategoryAffinity["Music"] = core.CategoryAffinity{Strength: 0.1}

	r := &Content{Catalog: cat}
	cands, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: p})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	// 0.3×0.1 + 0.1×(1/4) = 0.055，低于阈值应被丢弃
	if len(cands) != 0 {
		t.Fatalf("weak match should be discarded, got %v", cands)
	}
}

func TestContentSkipsRatedItems(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "g1", Category: "Gaming", Tags: []string{"esports"}, QualityTier: 3})

	p := core.NewUserProfile("u1")
	p.CategoryAffinity["Gaming"] = core.CategoryAffinity{Strength: 0.9}
	p.TagAffinity["esports"] = 0.8
	p.Ratings["g1"] = 10

	r := &Content{Catalog: cat}
	cands, _ := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: p})
	if len(cands) != 0 {
		t.Fatalf("already-rated item must not be re-recalled, got %v", cands)
	}
}

func TestContentDeterministic(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "g1", Category: "Gaming", Tags: []string{"esports"}, QualityTier: 3})
	cat.Put(&core.ItemFeatures{ItemID: "g2", Category: "Gaming", Tags: []string{"esports", "fps"}, QualityTier: 2})

	p := core.NewUserProfile("u1")
	p.CategoryAffinity["Gaming"] = core.CategoryAffinity{Strength: 0.9}
	p.TagAffinity["esports"] = 0.8

	r := &Content{Catalog: cat}
	rctx := &core.RecommendContext{UserID: "u1", User: p}

	first, _ := r.Recall(context.Background(), rctx)
	second, _ := r.Recall(context.Background(), rctx)
	if len(first) != len(second) {
		t.Fatalf("content recall not deterministic: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].RawScore != second[i].RawScore {
			t.Fatalf("content recall not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}
}
