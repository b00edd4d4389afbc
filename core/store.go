package core

import (
	"context"
	"time"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 事件日志持久化（append-only）
//   - 画像/目录数据缓存
//
// 实现：
//   - store.MemoryStore 实现此接口（测试/开发/原型）
//   - store.RedisStore 实现此接口（生产）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取（减少网络往返）
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持更丰富的 KV 操作。
//
// 扩展功能：
//   - 列表（List）：append-only 事件日志的天然结构
//   - 有序集合（SortedSet）：热度计数、趋势排序
//
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// RPush 向列表尾部追加成员（事件日志 append）
	RPush(ctx context.Context, key string, values ...[]byte) error

	// LRange 按下标区间读取列表成员（stop=-1 表示末尾）
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZIncrBy 对有序集合成员的分数做增量（热度计数）
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)

	// ZRange 按分数降序获取有序集合成员（TopN）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZScore 获取成员的分数
	ZScore(ctx context.Context, key string, member string) (float64, error)
}

// EventStore 是事件日志的领域接口（append-style）。
//
// 失败语义：Record 返回 WRITE_FAILED 时交互未被持久记录，调用方应重试；
// 画像更新只在事件成功落盘之后进行，不会留下半截状态。
type EventStore interface {
	Name() string

	// Record 追加一条交互事件。
	Record(ctx context.Context, ev *InteractionEvent) error

	// Tail 返回用户最近 window 时间窗内的事件，按时间升序。
	// window<=0 表示不限窗口。快照语义，可重复调用。
	Tail(ctx context.Context, userID string, window time.Duration) ([]InteractionEvent, error)
}

// Catalog 是内容目录的领域接口（外部协作方提供数据，引擎只读）。
// 唯一的派生可写状态是 popularity 计数。
//
// 约定：ItemFeatures 必须容忍未知 id，返回占位特征，永不报错。
type Catalog interface {
	Name() string

	// ItemFeatures 查询物品特征；未知 id 返回 NewStubItem 的占位结果。
	ItemFeatures(ctx context.Context, itemID string) *ItemFeatures

	// AllItems 返回全部已知物品 id。
	AllItems(ctx context.Context) []string

	// IncrPopularity 对物品热度计数做增量（引擎在交互时调用）。
	IncrPopularity(ctx context.Context, itemID string, delta int64)

	// Popularity 返回物品当前热度计数。
	Popularity(ctx context.Context, itemID string) int64
}
