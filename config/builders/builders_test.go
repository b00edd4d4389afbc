package builders

import (
	"context"
	"testing"

	"github.com/rushteam/feedkit/catalog"
	"github.com/rushteam/feedkit/config"
	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/graph"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/profile"
)

func bindFixture(t *testing.T) Deps {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "g1", Category: "Gaming", QualityTier: 3})
	cat.Put(&core.ItemFeatures{ItemID: "m1", Category: "Music", QualityTier: 2})
	cat.IncrPopularity(context.Background(), "g1", 3)
	cat.IncrPopularity(context.Background(), "m1", 1)

	d := Deps{
		Profiles: profile.NewStore(cat),
		Catalog:  cat,
		Graph:    graph.NewGraph(),
		Popular:  cat,
		Rank:     &core.DefaultRankConfig{},
	}
	Bind(d)
	return d
}

func TestBindRegistersBuiltinNodes(t *testing.T) {
	bindFixture(t)

	for _, typ := range []string{"recall.fanout", "filter", "rank.fuse", "rank.diversity", "rank.novelty", "rank.topn"} {
		found := false
		for _, s := range config.SupportedTypes() {
			if s == typ {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("node type %s not registered", typ)
		}
	}
}

func TestBuildPipelineFromConfig(t *testing.T) {
	bindFixture(t)

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "feed"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.fanout", Config: map[string]interface{}{
			"merge_strategy": "union",
			"dedup":          false,
			"sources": []interface{}{
				map[string]interface{}{"type": "trending", "top_k": 10},
				map[string]interface{}{"type": "content"},
			},
		}},
		{Type: "filter", Config: map[string]interface{}{"exclude_watched": true}},
		{Type: "rank.fuse", Config: map[string]interface{}{}},
		{Type: "rank.topn", Config: map[string]interface{}{"n": 5}},
	}

	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(p.Nodes))
	}

	rctx := &core.RecommendContext{UserID: "fresh", User: core.NewUserProfile("fresh")}
	out, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("trending source should produce candidates for a fresh user")
	}
	if len(out) > 5 {
		t.Fatalf("topn did not truncate: %d", len(out))
	}
}

func TestBuildFanoutRejectsUnknownSource(t *testing.T) {
	bindFixture(t)

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.fanout", Config: map[string]interface{}{
			"sources": []interface{}{map[string]interface{}{"type": "astrology"}},
		}},
	}
	if _, err := cfg.BuildPipeline(config.DefaultFactory()); err == nil {
		t.Fatalf("unknown source type should fail")
	}
}
