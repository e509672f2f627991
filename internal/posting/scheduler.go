package posting

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/common/middleware"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

// Publisher 外部发布组件：把一台车挂到外部平台上。
// 调度器只关心“单台发布”这一个不透明、可失败的操作，
// 成功时可附带挂牌 URL，浏览器侧的细节都在实现里。
type Publisher interface {
	Publish(ctx context.Context, v *vehicle.Vehicle) (listingURL string, err error)
}

// SchedulerConfig 调度参数。
type SchedulerConfig struct {
	MaxPerDay  int           // 每日发布上限
	MinDelay   time.Duration // 两次发布之间最小间隔
	MaxDelay   time.Duration // 两次发布之间最大间隔
	StaleAfter time.Duration // posting 残留判定时长，0 表示不清理
}

// RunSummary 一次调度运行的结果。
type RunSummary struct {
	Stopped    bool // 是否被协作式停止提前结束
	Attempted  int  // 实际尝试发布的台数
	Succeeded  int
	Failed     int
	Remaining  int // 运行结束后仍在队列中的台数
	DailyCount int // 运行结束后的当日计数
}

// Scheduler 单工单线程的发布调度器。
//
// 刻意不做并发：外部平台对商家账号有每日硬上限，且并行投递
// 很容易被判定为自动化行为。每台之间随机休眠 MinDelay-MaxDelay。
// 停止是协作式的：每台开始前轮询停止标记，进行中的发布不打断。
// 同一时刻最多运行一个实例；并发起两个属于误用而不是支持的模式。
type Scheduler struct {
	vehicles  VehicleStore
	counter   Counter
	audit     AuditLog
	publisher Publisher
	breaker   *middleware.CircuitBreaker
	cfg       SchedulerConfig
	log       logger.Logger

	stop atomic.Bool
	now  func() time.Time
	// sleep 可注入，测试里换成立即返回
	sleep func(ctx context.Context, d time.Duration) error
	rnd   *rand.Rand
}

func NewScheduler(vehicles VehicleStore, counter Counter, audit AuditLog, publisher Publisher, cfg SchedulerConfig, log logger.Logger) *Scheduler {
	return &Scheduler{
		vehicles:  vehicles,
		counter:   counter,
		audit:     audit,
		publisher: publisher,
		breaker:   middleware.NewCircuitBreaker("poster-agent", 3, 5*time.Minute),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sleep:     sleepCtx,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RequestStop 请求协作式停止。当前这台发布完成后生效。
func (s *Scheduler) RequestStop() {
	s.stop.Store(true)
}

// Run 执行一轮调度：
//  1. 清理上次崩溃残留的 posting 记录
//  2. 当日计数已达上限则直接正常结束
//  3. 按剩余额度从队首取车，逐台发布，台间随机休眠
//
// 发布失败只记录（failed 状态 + 审计），继续下一台；
// 目录或计数器本身的读写失败是致命错误，终止本轮。
// 无论正常结束还是提前停止，停止标记都会被复位。
func (s *Scheduler) Run(ctx context.Context) (RunSummary, error) {
	defer s.stop.Store(false)

	var sum RunSummary
	if s == nil || s.vehicles == nil || s.publisher == nil {
		return sum, fmt.Errorf("scheduler not initialized")
	}

	if err := s.recoverStale(ctx); err != nil {
		return sum, err
	}

	today := DateKey(s.now())
	count, err := s.counter.Get(ctx, today)
	if err != nil {
		return sum, fmt.Errorf("failed to read daily count: %w", err)
	}
	sum.DailyCount = count

	queue, err := s.vehicles.ListByStatus(ctx, vehicle.StatusQueued)
	if err != nil {
		return sum, fmt.Errorf("failed to fetch queue: %w", err)
	}
	sum.Remaining = len(queue)

	if count >= s.cfg.MaxPerDay {
		// 正常的当日终止条件，不是错误
		s.log.Infof("daily limit reached (%d/%d), nothing to do", count, s.cfg.MaxPerDay)
		return sum, nil
	}

	slots := s.cfg.MaxPerDay - count
	if slots > len(queue) {
		slots = len(queue)
	}
	toPost := queue[:slots]
	s.log.Infof("daily posts so far: %d/%d, queue: %d, will post %d",
		count, s.cfg.MaxPerDay, len(queue), len(toPost))

	for i := range toPost {
		if s.stop.Load() || ctx.Err() != nil {
			sum.Stopped = true
			break
		}

		v := &toPost[i]
		if err := s.postOne(ctx, v, &sum); err != nil {
			sum.Remaining = len(queue) - sum.Attempted
			return sum, err
		}

		// 最后一台之后不再等待
		if i < len(toPost)-1 {
			delay := s.randomDelay()
			s.log.Infof("waiting %s before next post", delay.Round(time.Second))
			if err := s.sleep(ctx, delay); err != nil {
				sum.Stopped = true
				break
			}
		}
	}

	sum.Remaining = len(queue) - sum.Attempted
	sum.DailyCount = count + sum.Succeeded
	s.log.Infof("run complete: %d/%d posted, %d failed, %d remaining, daily total %d/%d",
		sum.Succeeded, sum.Attempted, sum.Failed, sum.Remaining, sum.DailyCount, s.cfg.MaxPerDay)
	return sum, nil
}

// postOne 发布单台：queued -> posting -> posted/failed。
// 返回非 nil 仅当基础设施失败（目录写失败、计数器失败、熔断开启）。
func (s *Scheduler) postOne(ctx context.Context, v *vehicle.Vehicle, sum *RunSummary) error {
	now := s.now()
	if err := vehicle.ApplyTransition(v, vehicle.StatusPosting, now); err != nil {
		return err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return fmt.Errorf("failed to mark posting: %w", err)
	}

	sum.Attempted++
	s.log.Infof("posting %s (VIN %s)", v.Title(), v.VIN)

	var listingURL string
	pubErr := s.breaker.Call(ctx, func() error {
		u, err := s.publisher.Publish(ctx, v)
		listingURL = u
		return err
	})

	if pubErr != nil {
		if terr := vehicle.ApplyTransition(v, vehicle.StatusFailed, s.now()); terr != nil {
			return terr
		}
		if err := s.vehicles.Save(ctx, v); err != nil {
			return fmt.Errorf("failed to mark failed: %w", err)
		}
		if err := s.audit.Append(ctx, v.ID, ActionFailed, pubErr.Error()); err != nil {
			s.log.Warnf("audit append failed for %s: %v", v.ID, err)
		}
		sum.Failed++
		s.log.Errorf("post failed for %s: %v", v.Title(), pubErr)

		// 熔断开启说明发布代理整体不可用，继续只会批量失败
		if errors.Is(pubErr, middleware.ErrCircuitOpen) {
			return fmt.Errorf("publisher unavailable: %w", pubErr)
		}
		return nil
	}

	if err := vehicle.ApplyTransition(v, vehicle.StatusPosted, s.now()); err != nil {
		return err
	}
	v.ListingURL = listingURL
	if err := s.vehicles.Save(ctx, v); err != nil {
		return fmt.Errorf("failed to mark posted: %w", err)
	}
	if err := s.counter.Increment(ctx, DateKey(s.now()), s.now()); err != nil {
		return fmt.Errorf("failed to increment daily count: %w", err)
	}
	if err := s.audit.Append(ctx, v.ID, ActionPosted, listingURL); err != nil {
		s.log.Warnf("audit append failed for %s: %v", v.ID, err)
	}
	sum.Succeeded++
	s.log.Infof("posted %s: %s", v.Title(), listingURL)
	return nil
}

// recoverStale 把停留在 posting 超过 StaleAfter 的记录转为 failed。
// 崩溃在窗口内的不动，避免误伤还在跑的实例。
func (s *Scheduler) recoverStale(ctx context.Context) error {
	if s.cfg.StaleAfter <= 0 {
		return nil
	}
	stale, err := s.vehicles.ListStalePosting(ctx, s.now().Add(-s.cfg.StaleAfter))
	if err != nil {
		return fmt.Errorf("failed to list stale posting records: %w", err)
	}
	for i := range stale {
		v := &stale[i]
		if err := vehicle.ApplyTransition(v, vehicle.StatusFailed, s.now()); err != nil {
			continue
		}
		if err := s.vehicles.Save(ctx, v); err != nil {
			return fmt.Errorf("failed to recover stale record %s: %w", v.ID, err)
		}
		if err := s.audit.Append(ctx, v.ID, ActionFailed, "stale posting state recovered on startup"); err != nil {
			s.log.Warnf("audit append failed for %s: %v", v.ID, err)
		}
		s.log.Warnf("recovered stale posting record %s (VIN %s)", v.ID, v.VIN)
	}
	return nil
}

// randomDelay 在配置区间内取均匀随机的间隔。
func (s *Scheduler) randomDelay() time.Duration {
	if s.cfg.MaxDelay <= s.cfg.MinDelay {
		return s.cfg.MinDelay
	}
	return s.cfg.MinDelay + time.Duration(s.rnd.Int63n(int64(s.cfg.MaxDelay-s.cfg.MinDelay)))
}

// sleepCtx 可被 ctx 取消的休眠。
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
