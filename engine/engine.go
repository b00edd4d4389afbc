// Package engine 是 feedkit 的门面：串起事件流、画像、目录、概念图
// 与推荐 Pipeline，并承载后台重训调度。
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/event"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/graph"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/profile"
	"github.com/rushteam/feedkit/rank"
	"github.com/rushteam/feedkit/recall"
	"github.com/rushteam/feedkit/signal"
)

// 重训触发条件的默认值。
const (
	defaultRetrainInterval  = 5 * time.Minute
	defaultRetrainThreshold = 10
	defaultMaxResults       = 20
)

// purger 支持按用户清空事件流（隐私删除钩子）。
type purger interface {
	Purge(ctx context.Context, userID string) error
}

// Engine 是推荐引擎实例。所有依赖注入进来，不用包级单例，
// 便于确定性测试与多租户隔离。
type Engine struct {
	events    core.EventStore
	profiles  *profile.Store
	catalog   core.Catalog
	graph     *graph.Graph
	estimator *signal.Estimator
	scorer    *signal.Scorer
	pipe      *pipeline.Pipeline
	sink      event.Sink // 可选：事件镜像到 Kafka

	rankConfig core.RankConfig
	maxResults int

	retrainInterval  time.Duration
	retrainThreshold int

	mu          sync.Mutex
	eventCounts map[string]int // userID -> 距上次重训的事件数

	retrainCh chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option 配置 Engine。
type Option func(*Engine)

// WithPipeline 使用自定义 Pipeline（默认按标准编排构建）。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipe = p }
}

// WithRankConfig 使用自定义融合配置。
func WithRankConfig(cfg core.RankConfig) Option {
	return func(e *Engine) { e.rankConfig = cfg }
}

// WithSink 事件写入本地存储后再镜像到外部管道（如 Kafka）。
func WithSink(s event.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMaxResults 设置单次推荐返回上限。
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithRetrainTrigger 设置重训触发条件：定时周期与单用户事件数阈值。
func WithRetrainTrigger(interval time.Duration, eventThreshold int) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.retrainInterval = interval
		}
		if eventThreshold > 0 {
			e.retrainThreshold = eventThreshold
		}
	}
}

// New 组装一个引擎。events/profiles/catalog 为必需依赖。
func New(events core.EventStore, profiles *profile.Store, catalog core.Catalog, opts ...Option) *Engine {
	e := &Engine{
		events:           events,
		profiles:         profiles,
		catalog:          catalog,
		graph:            graph.NewGraph(),
		rankConfig:       &core.DefaultRankConfig{},
		maxResults:       defaultMaxResults,
		retrainInterval:  defaultRetrainInterval,
		retrainThreshold: defaultRetrainThreshold,
		eventCounts:      make(map[string]int),
		retrainCh:        make(chan struct{}, 1),
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.estimator = &signal.Estimator{Events: events, Catalog: catalog}
	e.scorer = &signal.Scorer{Events: events}

	if e.pipe == nil {
		e.pipe = e.defaultPipeline()
	}

	e.wg.Add(1)
	go e.retrainLoop()
	return e
}

// defaultPipeline 是标准编排：五路召回 → 过滤 → 融合 → 多样性 → 新鲜度 → 截断。
func (e *Engine) defaultPipeline() *pipeline.Pipeline {
	popular, _ := e.catalog.(recall.PopularSource)
	recallCfg := core.RecallDefaults{}
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.Collaborative{Profiles: e.profiles},
					&recall.Content{Profiles: e.profiles, Catalog: e.catalog},
					&recall.Knowledge{Profiles: e.profiles, Graph: e.graph},
					&recall.Contextual{Profiles: e.profiles, Catalog: e.catalog},
					&recall.Trending{Popular: popular, Catalog: e.catalog},
				},
				Dedup:   false, // 同一物品允许多策略候选并存，融合后由 TopN 去重
				Timeout: recallCfg.DefaultTimeout(),
			},
			&filter.FilterNode{Filters: []filter.Filter{&filter.WatchedFilter{}}},
			&rank.FuseNode{Config: e.rankConfig},
			&rank.DiversityNode{Catalog: e.catalog},
			&rank.NoveltyNode{Catalog: e.catalog},
			&rank.TopNNode{N: e.maxResults},
		},
	}
}

// RecordInteraction 记录一次交互。
//
// 事件先落事件流：写失败直接返回错误，画像不做任何更新
// （调用方可重试，不会留下半截状态）。写成功后同步推进画像、
// 热度计数、图统计，并尽力镜像到外部管道。
func (e *Engine) RecordInteraction(ctx context.Context, ev *core.InteractionEvent) error {
	if err := e.events.Record(ctx, ev); err != nil {
		return err
	}

	e.profiles.Update(ctx, ev)
	e.catalog.IncrPopularity(ctx, ev.ItemID, 1)
	e.graph.Observe(ev.ItemID, core.RewardOf(ev.Action))

	if e.sink != nil {
		if err := e.sink.Mirror(ev); err != nil {
			logrus.WithError(err).Warn("事件镜像失败")
		}
	}

	e.noteEvent(ev.UserID)
	return nil
}

// noteEvent 记录事件计数；单用户达到阈值时触发一次重训。
func (e *Engine) noteEvent(userID string) {
	e.mu.Lock()
	e.eventCounts[userID]++
	trigger := e.eventCounts[userID] >= e.retrainThreshold
	if trigger {
		e.eventCounts[userID] = 0
	}
	e.mu.Unlock()

	if trigger {
		select {
		case e.retrainCh <- struct{}{}:
		default: // 已有待处理的重训信号
		}
	}
}

// Recommend 返回用户的推荐列表。
//
// 上下文估计 → 画像快照 → Pipeline。个别策略超时只会缺席融合，
// 请求总能拿到尽力而为的结果。
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) ([]core.RankedResult, error) {
	rctx := e.estimator.CurrentContext(ctx, userID)
	rctx.User = e.profiles.Get(ctx, userID)
	rctx.Scene = "feed"

	cands, err := e.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > len(cands) {
		limit = len(cands)
	}
	out := make([]core.RankedResult, 0, limit)
	for _, c := range cands[:limit] {
		out = append(out, c.ToResult())
	}
	return out, nil
}

// CurrentContext 暴露上下文估计结果（不含画像快照）。
func (e *Engine) CurrentContext(ctx context.Context, userID string) *core.RecommendContext {
	return e.estimator.CurrentContext(ctx, userID)
}

// EngagementScore 返回用户近期参与度 ∈ [0,1]，供 UI/分析只读消费。
func (e *Engine) EngagementScore(ctx context.Context, userID string, window time.Duration) float64 {
	return e.scorer.Score(ctx, userID, window)
}

// DeleteUser 隐私删除钩子：清空用户的事件流与画像。
func (e *Engine) DeleteUser(ctx context.Context, userID string) error {
	if p, ok := e.events.(purger); ok {
		if err := p.Purge(ctx, userID); err != nil {
			return err
		}
	}
	e.profiles.Delete(ctx, userID)
	e.mu.Lock()
	delete(e.eventCounts, userID)
	e.mu.Unlock()
	return nil
}

// Retrain 立即执行一轮重训：全量重建概念图并清理悬空统计。
// 新图构建完成后原子替换，排序请求始终读到完整快照。
func (e *Engine) Retrain(ctx context.Context) error {
	if err := e.graph.Rebuild(ctx, e.catalog); err != nil {
		return err
	}
	e.graph.Prune()
	return nil
}

// Graph 暴露概念图（测试与运维用）。
func (e *Engine) Graph() *graph.Graph { return e.graph }

func (e *Engine) retrainLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.retrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
		case <-e.retrainCh:
		}
		if err := e.Retrain(context.Background()); err != nil {
			logrus.WithError(err).Warn("重训失败，沿用上一份图快照")
		}
	}
}

// Close 停止后台任务并关闭外部管道。
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)
		e.wg.Wait()
		if e.sink != nil {
			err = e.sink.Close()
		}
	})
	return err
}
