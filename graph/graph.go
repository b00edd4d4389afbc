// Package graph 实现概念图（知识化召回的底层结构）。
//
// 图以不可变快照形式发布：重建在后台完成，完成后原子替换指针，
// 读路径永远看到一张完整一致的图，不加锁。节点的热度/相关度等
// 随交互变化的统计量放在快照之外的 stats 表里，跨重建存活。
package graph

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/feedkit/core"
)

// DefaultEdgeThreshold 建边的余弦相似度门槛。
const DefaultEdgeThreshold = 0.3

// relevanceDecay 相关度的指数衰减系数（旧值权重）。
const relevanceDecay = 0.9

// ConceptNode 是概念图节点，对应目录中的一个物品。
type ConceptNode struct {
	ID          string
	Category    string
	Quality     float64 // 归一化质量 [0,1]，由 QualityTier 映射
	Embedding   []float64
	Connections []string
}

type nodeStats struct {
	Popularity float64
	Relevance  float64
}

type snapshot struct {
	nodes map[string]*ConceptNode
}

// Graph 概念图。零值不可用，使用 NewGraph。
type Graph struct {
	snap atomic.Pointer[snapshot]

	mu    sync.Mutex
	stats map[string]*nodeStats

	EdgeThreshold float64
}

func NewGraph() *Graph {
	g := &Graph{
		stats:         make(map[string]*nodeStats),
		EdgeThreshold: DefaultEdgeThreshold,
	}
	g.snap.Store(&snapshot{nodes: make(map[string]*ConceptNode)})
	return g
}

// Rebuild 从目录全量重建图并原子发布。
// 建边规则：两节点 embedding 余弦相似度 >= EdgeThreshold 则互连。
func (g *Graph) Rebuild(ctx context.Context, catalog core.Catalog) error {
	ids := catalog.AllItems(ctx)
	nodes := make(map[string]*ConceptNode, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := catalog.ItemFeatures(ctx, id)
		nodes[id] = &ConceptNode{
			ID:        id,
			Category:  f.Category,
			Quality:   float64(f.QualityTier) / 4.0,
			Embedding: f.Embedding,
		}
	}

	ordered := make([]string, 0, len(nodes))
	for id := range nodes {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			a, b := nodes[ordered[i]], nodes[ordered[j]]
			if cosine(a.Embedding, b.Embedding) >= g.EdgeThreshold {
				a.Connections = append(a.Connections, b.ID)
				b.Connections = append(b.Connections, a.ID)
			}
		}
	}

	g.snap.Store(&snapshot{nodes: nodes})
	logrus.WithFields(logrus.Fields{"nodes": len(nodes)}).Debug("概念图重建完成")
	return nil
}

// Node 读取节点；不存在返回 nil。返回值按只读约定使用。
func (g *Graph) Node(id string) *ConceptNode {
	return g.snap.Load().nodes[id]
}

// Len 当前快照的节点数。
func (g *Graph) Len() int {
	return len(g.snap.Load().nodes)
}

// Neighbors 返回节点的邻居（已过滤悬空边）。
func (g *Graph) Neighbors(id string) []string {
	s := g.snap.Load()
	node, ok := s.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(node.Connections))
	for _, nid := range node.Connections {
		if _, ok := s.nodes[nid]; ok {
			out = append(out, nid)
		}
	}
	return out
}

// Expand 从种子节点出发做广度优先扩散，返回不含种子的候选节点。
// maxDepth 控制扩散层数，limit 控制返回上限。
func (g *Graph) Expand(seeds []string, maxDepth, limit int) []string {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if limit <= 0 {
		limit = 20
	}
	s := g.snap.Load()
	visited := make(map[string]bool, len(seeds))
	for _, id := range seeds {
		visited[id] = true
	}

	frontier := seeds
	var out []string
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			node, ok := s.nodes[id]
			if !ok {
				continue
			}
			for _, nid := range node.Connections {
				if visited[nid] {
					continue
				}
				if _, ok := s.nodes[nid]; !ok {
					continue
				}
				visited[nid] = true
				out = append(out, nid)
				next = append(next, nid)
				if len(out) >= limit {
					return out
				}
			}
		}
		frontier = next
	}
	return out
}

// Observe 记录一次交互对节点统计量的影响：
// 热度 +1，相关度按奖励做指数平滑（奖励归一化到 [0,1]）。
func (g *Graph) Observe(itemID string, reward float64) {
	norm := reward / 10.0
	if norm < 0 {
		norm = 0
	} else if norm > 1 {
		norm = 1
	}
	g.mu.Lock()
	st, ok := g.stats[itemID]
	if !ok {
		st = &nodeStats{}
		g.stats[itemID] = st
	}
	st.Popularity++
	st.Relevance = relevanceDecay*st.Relevance + (1-relevanceDecay)*norm
	g.mu.Unlock()
}

// Popularity 节点的累计交互热度。
func (g *Graph) Popularity(itemID string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.stats[itemID]; ok {
		return st.Popularity
	}
	return 0
}

// Relevance 节点的平滑相关度 [0,1]。
func (g *Graph) Relevance(itemID string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.stats[itemID]; ok {
		return st.Relevance
	}
	return 0
}

// MaxPopularity 当前最大热度，用于归一化。空图返回 1 避免除零。
func (g *Graph) MaxPopularity() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	max := 1.0
	for _, st := range g.stats {
		if st.Popularity > max {
			max = st.Popularity
		}
	}
	return max
}

// Prune 清理已不在快照中的统计项，并重新发布去除悬空边后的快照。
func (g *Graph) Prune() {
	s := g.snap.Load()

	g.mu.Lock()
	for id := range g.stats {
		if _, ok := s.nodes[id]; !ok {
			delete(g.stats, id)
		}
	}
	g.mu.Unlock()

	nodes := make(map[string]*ConceptNode, len(s.nodes))
	for id, node := range s.nodes {
		kept := make([]string, 0, len(node.Connections))
		for _, nid := range node.Connections {
			if _, ok := s.nodes[nid]; ok {
				kept = append(kept, nid)
			}
		}
		clone := *node
		clone.Connections = kept
		nodes[id] = &clone
	}
	g.snap.Store(&snapshot{nodes: nodes})
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
