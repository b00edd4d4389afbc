// Package catalog 实现内容目录（Item Catalog）。
//
// 目录数据由外部协作方提供，引擎只读；唯一的派生可写状态是热度计数
// 与 embedding 协同更新的对称推动。未知 itemID 永不报错：惰性创建
// 占位特征，保证画像更新链路不因目录缺数据而阻塞。
//
// 特征按 copy-on-read 发放：ItemFeatures 返回独立快照，内部向量只在
// 目录锁内修改，画像更新与图重建各自持有的切片不会与写入方共享内存。
package catalog

import (
	"context"
	"sync"

	"github.com/rushteam/feedkit/core"
)

// MemoryCatalog 是内存实现的目录。
// 可选地把热度计数镜像到 KeyValueStore 的有序集合（跨进程共享热度）。
type MemoryCatalog struct {
	mu         sync.RWMutex
	items      map[string]*core.ItemFeatures
	popularity map[string]int64

	// Store 可选：热度计数同步写入 zset（key 为 PopularityKey）。
	Store         core.KeyValueStore
	PopularityKey string
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items:         make(map[string]*core.ItemFeatures),
		popularity:    make(map[string]int64),
		PopularityKey: "popularity:items",
	}
}

func (c *MemoryCatalog) Name() string { return "catalog.memory" }

// Put 写入/覆盖一个物品的特征（目录数据装载入口）。存入的是拷贝，
// 调用方可继续持有入参。embedding 缺失或长度不符时补齐为零向量，
// 保证点积比较的维度不变式。
func (c *MemoryCatalog) Put(item *core.ItemFeatures) {
	if item == nil || item.ItemID == "" {
		return
	}
	stored := item.Clone()
	if len(stored.Embedding) != core.EmbeddingDim {
		emb := make([]float64, core.EmbeddingDim)
		copy(emb, stored.Embedding)
		stored.Embedding = emb
	}
	c.mu.Lock()
	c.items[stored.ItemID] = stored
	c.mu.Unlock()
}

// ItemFeatures 查询物品特征，返回独立快照；未知 id 惰性创建占位特征
// 并记住它，让后续的 popularity/embedding 更新有处可落。
func (c *MemoryCatalog) ItemFeatures(ctx context.Context, itemID string) *core.ItemFeatures {
	c.mu.RLock()
	if item, ok := c.items[itemID]; ok {
		snapshot := item.Clone()
		c.mu.RUnlock()
		return snapshot
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[itemID]; ok {
		return item.Clone()
	}
	item := core.NewStubItem(itemID)
	c.items[itemID] = item
	return item.Clone()
}

func (c *MemoryCatalog) AllItems(ctx context.Context) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.items))
	for id := range c.items {
		out = append(out, id)
	}
	return out
}

func (c *MemoryCatalog) IncrPopularity(ctx context.Context, itemID string, delta int64) {
	c.mu.Lock()
	c.popularity[itemID] += delta
	c.mu.Unlock()

	if c.Store != nil {
		// 镜像失败不影响内存计数
		_, _ = c.Store.ZIncrBy(ctx, c.PopularityKey, float64(delta), itemID)
	}
}

func (c *MemoryCatalog) Popularity(ctx context.Context, itemID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.popularity[itemID]
}

// TopPopular 返回热度最高的 n 个物品（趋势召回用）。
func (c *MemoryCatalog) TopPopular(ctx context.Context, n int) []string {
	if c.Store != nil {
		if ids, err := c.Store.ZRange(ctx, c.PopularityKey, 0, int64(n)-1); err == nil && len(ids) > 0 {
			return ids
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	type pair struct {
		id    string
		count int64
	}
	pairs := make([]pair, 0, len(c.popularity))
	for id, count := range c.popularity {
		pairs = append(pairs, pair{id, count})
	}
	// 简单选择排序取 TopN（热度表通常不大）
	for i := 0; i < n && i < len(pairs); i++ {
		maxIdx := i
		for j := i + 1; j < len(pairs); j++ {
			if pairs[j].count > pairs[maxIdx].count {
				maxIdx = j
			}
		}
		pairs[i], pairs[maxIdx] = pairs[maxIdx], pairs[i]
	}
	if n > len(pairs) {
		n = len(pairs)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pairs[i].id)
	}
	return out
}

// NudgeEmbedding 实现 profile.EmbeddingNudger：embedding 协同更新的物品侧。
// 内部向量只在目录锁内修改；已发放的快照不受影响。
func (c *MemoryCatalog) NudgeEmbedding(ctx context.Context, itemID string, delta []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[itemID]
	if !ok || len(item.Embedding) != len(delta) {
		return
	}
	for i := range delta {
		item.Embedding[i] += delta[i]
	}
}

var _ core.Catalog = (*MemoryCatalog)(nil)
