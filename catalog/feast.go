package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/sirupsen/logrus"

	"github.com/rushteam/feedkit/core"
)

// Feast 特征名约定：物品特征在 feature store 中按以下名称注册。
const (
	featCategory  = "item:category"
	featTags      = "item:tags"
	featDuration  = "item:duration_seconds"
	featQuality   = "item:quality_tier"
	featPublished = "item:published_at"
)

// FeastCatalog 是基于 Feast 在线特征服务的只读目录。
// 任何查询失败都降级为占位特征，不向调用方暴露错误。
// 热度计数等派生状态由内嵌的本地目录承接（Feast 侧只读）。
type FeastCatalog struct {
	client  *feastsdk.GrpcClient
	project string

	mu    sync.RWMutex
	cache map[string]feastEntry
	ttl   time.Duration

	// local 承接可写的派生状态（热度、占位物品）。
	local *MemoryCatalog
}

type feastEntry struct {
	item    *core.ItemFeatures
	expires time.Time
}

// NewFeastCatalog 连接 Feast serving 服务。port 为 0 时用默认 6565。
func NewFeastCatalog(host string, port int, project string) (*FeastCatalog, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("创建 Feast gRPC 客户端失败: %w", err)
	}
	return &FeastCatalog{
		client:  client,
		project: project,
		cache:   make(map[string]feastEntry),
		ttl:     5 * time.Minute,
		local:   NewMemoryCatalog(),
	}, nil
}

func (c *FeastCatalog) Name() string { return "catalog.feast" }

func (c *FeastCatalog) ItemFeatures(ctx context.Context, itemID string) *core.ItemFeatures {
	c.mu.RLock()
	entry, ok := c.cache[itemID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.item
	}

	item, err := c.fetch(ctx, itemID)
	if err != nil {
		logrus.WithError(err).WithField("item_id", itemID).Warn("feast 特征查询失败，降级为占位特征")
		return c.local.ItemFeatures(ctx, itemID)
	}

	c.mu.Lock()
	c.cache[itemID] = feastEntry{item: item, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return item
}

func (c *FeastCatalog) fetch(ctx context.Context, itemID string) (*core.ItemFeatures, error) {
	req := &feastsdk.OnlineFeaturesRequest{
		Features: []string{featCategory, featTags, featDuration, featQuality, featPublished},
		Entities: []feastsdk.Row{{"item_id": feastsdk.StrVal(itemID)}},
		Project:  c.project,
	}
	resp, err := c.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, fmt.Errorf("feast 返回空结果: %s", itemID)
	}

	item := core.NewStubItem(itemID)
	row := rows[0]
	if v, ok := row[featCategory]; ok {
		if s := valueToString(v); s != "" {
			item.Category = s
		}
	}
	if v, ok := row[featTags]; ok {
		if s := valueToString(v); s != "" {
			item.Tags = strings.Split(s, ",")
		}
	}
	if v, ok := row[featDuration]; ok {
		item.DurationSeconds = int(valueToFloat64(v))
	}
	if v, ok := row[featQuality]; ok {
		if tier := int(valueToFloat64(v)); tier >= 1 && tier <= 4 {
			item.QualityTier = tier
		}
	}
	if v, ok := row[featPublished]; ok {
		if ts := int64(valueToFloat64(v)); ts > 0 {
			item.PublishedAt = time.Unix(ts, 0)
		}
	}
	return item, nil
}

func (c *FeastCatalog) AllItems(ctx context.Context) []string {
	// Feast 在线服务不支持遍历；只能返回本地已知的物品。
	return c.local.AllItems(ctx)
}

func (c *FeastCatalog) IncrPopularity(ctx context.Context, itemID string, delta int64) {
	c.local.IncrPopularity(ctx, itemID, delta)
}

func (c *FeastCatalog) Popularity(ctx context.Context, itemID string) int64 {
	return c.local.Popularity(ctx, itemID)
}

func (c *FeastCatalog) TopPopular(ctx context.Context, n int) []string {
	return c.local.TopPopular(ctx, n)
}

// Close 关闭底层 gRPC 连接。幂等：重复调用返回 nil。
func (c *FeastCatalog) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// proto Value 的访问接口，避免直接依赖 feast protos 包。
type stringValuer interface{ GetStringVal() string }
type int64Valuer interface{ GetInt64Val() int64 }
type doubleValuer interface{ GetDoubleVal() float64 }

func valueToString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case stringValuer:
		return v.GetStringVal()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func valueToFloat64(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		if dv, ok := val.(doubleValuer); ok {
			if f := dv.GetDoubleVal(); f != 0 {
				return f
			}
		}
		if iv, ok := val.(int64Valuer); ok {
			if n := iv.GetInt64Val(); n != 0 {
				return float64(n)
			}
		}
		f, _ := strconv.ParseFloat(fmt.Sprintf("%v", val), 64)
		return f
	}
}

var _ core.Catalog = (*FeastCatalog)(nil)
