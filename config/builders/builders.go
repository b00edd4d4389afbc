// Package builders 提供内置 Node 的配置构建器。
//
// 召回与重排节点依赖运行期对象（画像、目录、概念图），无法只靠
// 配置字面量构建，因此注册表不走 init 自动注册，而是由入口调用
// Bind(deps) 把依赖闭包进各构建器后再注册。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/feedkit/config"
	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/graph"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/conv"
	"github.com/rushteam/feedkit/rank"
	"github.com/rushteam/feedkit/recall"
)

// Deps 是构建 Node 所需的运行期依赖。
type Deps struct {
	Profiles recall.ProfileSource
	Catalog  core.Catalog
	Graph    *graph.Graph
	Popular  recall.PopularSource
	Rank     core.RankConfig
}

// Bind 用给定依赖注册所有内置 Node 构建器。
func Bind(d Deps) {
	config.Register("recall.fanout", buildFanoutNode(d))
	config.Register("filter", buildFilterNode)
	config.Register("rank.fuse", buildFuseNode(d))
	config.Register("rank.diversity", buildDiversityNode(d))
	config.Register("rank.novelty", buildNoveltyNode(d))
	config.Register("rank.topn", buildTopNNode)
}

func buildFanoutNode(d Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		sourcesConfig, ok := cfg["sources"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("sources not found or invalid")
		}

		sources := make([]recall.Source, 0, len(sourcesConfig))
		for _, sc := range sourcesConfig {
			sourceMap, ok := sc.(map[string]interface{})
			if !ok {
				continue
			}
			sourceType := conv.ConfigGet(sourceMap, "type", "")
			topK := int(conv.ConfigGetInt64(sourceMap, "top_k", 0))
			switch sourceType {
			case "collaborative":
				sources = append(sources, &recall.Collaborative{
					Profiles:         d.Profiles,
					TopKSimilarUsers: int(conv.ConfigGetInt64(sourceMap, "top_k_similar_users", 0)),
					TopKItems:        topK,
					MinCommonItems:   int(conv.ConfigGetInt64(sourceMap, "min_common_items", 0)),
				})
			case "content":
				sources = append(sources, &recall.Content{
					Profiles: d.Profiles,
					Catalog:  d.Catalog,
					TopK:     topK,
				})
			case "knowledge":
				sources = append(sources, &recall.Knowledge{
					Profiles: d.Profiles,
					Graph:    d.Graph,
					MaxDepth: int(conv.ConfigGetInt64(sourceMap, "max_depth", 0)),
					TopK:     topK,
				})
			case "contextual":
				sources = append(sources, &recall.Contextual{
					Profiles: d.Profiles,
					Catalog:  d.Catalog,
					TopK:     topK,
				})
			case "trending":
				sources = append(sources, &recall.Trending{
					Popular: d.Popular,
					Catalog: d.Catalog,
					TopK:    topK,
				})
			default:
				return nil, fmt.Errorf("unknown source type: %s", sourceType)
			}
		}

		fanout := &recall.Fanout{
			Sources:       sources,
			Dedup:         conv.ConfigGet(cfg, "dedup", true),
			MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
		}
		if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
			fanout.Timeout = time.Duration(sec) * time.Second
		}
		if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
			fanout.MaxConcurrent = int(n)
		}
		return fanout, nil
	}
}

func buildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filters := make([]filter.Filter, 0, 1)
	if conv.ConfigGet(cfg, "exclude_watched", true) {
		filters = append(filters, &filter.WatchedFilter{})
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFuseNode(d Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		node := &rank.FuseNode{Config: d.Rank}
		if rulesConfig, ok := cfg["rules"].([]interface{}); ok {
			for _, rc := range rulesConfig {
				ruleMap, ok := rc.(map[string]interface{})
				if !ok {
					continue
				}
				node.Rules = append(node.Rules, rank.BoostRule{
					Name:   conv.ConfigGet(ruleMap, "name", ""),
					Expr:   conv.ConfigGet(ruleMap, "expr", ""),
					Amount: conv.ConfigGetFloat64(ruleMap, "amount", 0),
				})
			}
		}
		return node, nil
	}
}

func buildDiversityNode(d Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rank.DiversityNode{Catalog: d.Catalog}, nil
	}
}

func buildNoveltyNode(d Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rank.NoveltyNode{Catalog: d.Catalog}, nil
	}
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
