// Package event 实现 append-style 的交互事件日志（Event Store）。
//
// 事件是引擎所有状态的唯一来源：画像增量更新、上下文/情绪估计、
// engagement 统计全部由事件流驱动。事件一经记录不可变。
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/feedkit/core"
)

// Log 是基于 core.KeyValueStore 的事件日志实现。
// 每个用户一个 List key，RPush 追加保证写入顺序。
//
// 失败语义：Record 失败对触发请求是致命的（WRITE_FAILED），
// 调用方应重试；画像更新只在落盘成功后进行。
type Log struct {
	store     core.KeyValueStore
	keyPrefix string
}

// NewLog 创建事件日志。store 为 nil 时 panic（事件日志没有降级模式）。
func NewLog(store core.KeyValueStore) *Log {
	if store == nil {
		panic("event: store is required")
	}
	return &Log{store: store, keyPrefix: "events:"}
}

func (l *Log) Name() string { return "event.log/" + l.store.Name() }

// Record 追加一条交互事件。
// 空 Timestamp 取当前时间，空 SessionID 自动生成。
func (l *Log) Record(ctx context.Context, ev *core.InteractionEvent) error {
	if ev == nil || ev.UserID == "" || ev.ItemID == "" {
		return core.NewDomainError(core.ModuleEvent, core.ErrorCodeWriteFailed,
			"event: user_id and item_id are required")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.SessionID == "" {
		ev.SessionID = uuid.NewString()
	}
	if ev.Device == "" {
		ev.Device = core.DeviceUnknown
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return core.NewDomainError(core.ModuleEvent, core.ErrorCodeWriteFailed,
			fmt.Sprintf("event: marshal: %v", err))
	}
	if err := l.store.RPush(ctx, l.keyPrefix+ev.UserID, raw); err != nil {
		return core.NewDomainError(core.ModuleEvent, core.ErrorCodeWriteFailed,
			fmt.Sprintf("event: append: %v", err))
	}
	return nil
}

// Tail 返回用户最近 window 时间窗内的事件，按时间升序。
// window<=0 表示不限窗口。返回的是快照，可重复调用。
func (l *Log) Tail(ctx context.Context, userID string, window time.Duration) ([]core.InteractionEvent, error) {
	raws, err := l.store.LRange(ctx, l.keyPrefix+userID, 0, -1)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var cutoff time.Time
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}

	out := make([]core.InteractionEvent, 0, len(raws))
	for _, raw := range raws {
		var ev core.InteractionEvent
		if json.Unmarshal(raw, &ev) != nil {
			continue // 坏记录跳过，不阻塞读取
		}
		if window > 0 && ev.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// LastN 返回用户最近的 n 条事件，按时间升序（情绪估计、engagement 窗口用）。
func (l *Log) LastN(ctx context.Context, userID string, n int) ([]core.InteractionEvent, error) {
	events, err := l.Tail(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Purge 删除用户的全部事件（隐私删除钩子）。
func (l *Log) Purge(ctx context.Context, userID string) error {
	return l.store.Delete(ctx, l.keyPrefix+userID)
}

var _ core.EventStore = (*Log)(nil)
