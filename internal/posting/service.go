package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

// VehicleStore 发布流程需要的目录能力，vehicle.Repo 是生产实现。
type VehicleStore interface {
	FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error)
	Save(ctx context.Context, v *vehicle.Vehicle) error
	ListByStatus(ctx context.Context, status vehicle.Status) ([]vehicle.Vehicle, error)
	ListStalePosting(ctx context.Context, before time.Time) ([]vehicle.Vehicle, error)
	CountByStatus(ctx context.Context, status vehicle.Status) (int64, error)
}

// AuditLog 只追加的发布审计日志。
type AuditLog interface {
	Append(ctx context.Context, vehicleID, action, details string) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Counter 持久化的每日发布计数。
type Counter interface {
	Get(ctx context.Context, date string) (int, error)
	Increment(ctx context.Context, date string, now time.Time) error
	Find(ctx context.Context, date string) (*DailyPostCount, error)
}

// Service 封装排队/取消排队等操作员动作（不含调度循环本身）。
type Service struct {
	vehicles VehicleStore
	audit    AuditLog
	counter  Counter
	log      logger.Logger
}

func NewService(vehicles VehicleStore, audit AuditLog, counter Counter, log logger.Logger) *Service {
	return &Service{vehicles: vehicles, audit: audit, counter: counter, log: log}
}

// Queue 把一台车放进发布队列。
// 前置条件：至少一张照片、非空描述；已排队或已发布的直接报错。
// 排队成功追加一条 queued 审计记录。
func (s *Service) Queue(ctx context.Context, vehicleID string) error {
	if s == nil || s.vehicles == nil {
		return fmt.Errorf("service not initialized")
	}
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("vehicle not found: %w", err)
	}

	// 先报状态冲突，再报素材缺失：ApplyTransition 对
	// queued/posted 给出专门错误
	if v.Status != vehicle.StatusQueued && v.Status != vehicle.StatusPosted {
		if err := vehicle.CheckReady(v); err != nil {
			return err
		}
	}
	if err := vehicle.ApplyTransition(v, vehicle.StatusQueued, time.Now()); err != nil {
		return err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return err
	}
	if err := s.audit.Append(ctx, v.ID, ActionQueued, ""); err != nil {
		s.log.Warnf("audit append failed for %s: %v", v.ID, err)
	}
	return nil
}

// Unqueue 把排队中的车辆撤回 not_posted，清空排队时间。
func (s *Service) Unqueue(ctx context.Context, vehicleID string) error {
	if s == nil || s.vehicles == nil {
		return fmt.Errorf("service not initialized")
	}
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("vehicle not found: %w", err)
	}
	if err := vehicle.ApplyTransition(v, vehicle.StatusNotPosted, time.Now()); err != nil {
		return err
	}
	return s.vehicles.Save(ctx, v)
}

// QueueAll 把所有具备条件的车辆（not_posted 或 failed，且照片描述齐全）
// 一次性入队，返回入队台数。单台失败不影响其余。
func (s *Service) QueueAll(ctx context.Context) (int, error) {
	if s == nil || s.vehicles == nil {
		return 0, fmt.Errorf("service not initialized")
	}

	var candidates []vehicle.Vehicle
	for _, status := range []vehicle.Status{vehicle.StatusNotPosted, vehicle.StatusFailed} {
		vs, err := s.vehicles.ListByStatus(ctx, status)
		if err != nil {
			return 0, fmt.Errorf("failed to list %s vehicles: %w", status, err)
		}
		candidates = append(candidates, vs...)
	}

	queued := 0
	now := time.Now()
	for i := range candidates {
		v := &candidates[i]
		if vehicle.CheckReady(v) != nil {
			continue
		}
		if err := vehicle.ApplyTransition(v, vehicle.StatusQueued, now); err != nil {
			continue
		}
		if err := s.vehicles.Save(ctx, v); err != nil {
			s.log.Errorf("queue failed for %s: %v", v.ID, err)
			continue
		}
		if err := s.audit.Append(ctx, v.ID, ActionQueued, ""); err != nil {
			s.log.Warnf("audit append failed for %s: %v", v.ID, err)
		}
		queued++
	}
	return queued, nil
}

// DailyStatus 当日发布额度信息。
type DailyStatus struct {
	Count      int
	Limit      int
	LastPostAt *time.Time
}

// StatusReport 发布侧整体状态，给状态上报协作方消费。
type StatusReport struct {
	Daily       DailyStatus
	QueueSize   int64
	TotalPosted int64
	RecentLog   []AuditEntry
}

// Status 汇总当日计数、队列长度、累计已发布数和最近的审计记录。
func (s *Service) Status(ctx context.Context, limit int) (*StatusReport, error) {
	if s == nil || s.vehicles == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	report := &StatusReport{Daily: DailyStatus{Limit: limit}}

	row, err := s.counter.Find(ctx, DateKey(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to read daily count: %w", err)
	}
	if row != nil {
		report.Daily.Count = row.Count
		report.Daily.LastPostAt = row.LastPostAt
	}

	if report.QueueSize, err = s.vehicles.CountByStatus(ctx, vehicle.StatusQueued); err != nil {
		return nil, err
	}
	if report.TotalPosted, err = s.vehicles.CountByStatus(ctx, vehicle.StatusPosted); err != nil {
		return nil, err
	}
	if report.RecentLog, err = s.audit.Recent(ctx, 10); err != nil {
		return nil, err
	}
	return report, nil
}
