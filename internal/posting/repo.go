package posting

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepo 持久化的每日发布计数。
type CounterRepo struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) *CounterRepo {
	return &CounterRepo{db: db}
}

// Get 返回指定日期的计数，没有记录按 0 处理。
func (r *CounterRepo) Get(ctx context.Context, date string) (int, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var row DailyPostCount
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

// Increment 原子自增当天计数（insert-or-increment），避免并发实例丢更新。
func (r *CounterRepo) Increment(ctx context.Context, date string, now time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	t := now
	row := DailyPostCount{Date: date, Count: 1, LastPostAt: &t}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":        gorm.Expr("count + 1"),
			"last_post_at": t,
		}),
	}).Create(&row).Error
}

// Find 返回指定日期整行，状态报表用；不存在时返回 nil。
func (r *CounterRepo) Find(ctx context.Context, date string) (*DailyPostCount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var row DailyPostCount
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// AuditRepo posting_log 的只追加仓储。
type AuditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append 追加一条审计记录。
func (r *AuditRepo) Append(ctx context.Context, vehicleID, action, details string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(&AuditEntry{
		VehicleID: vehicleID,
		Action:    action,
		Details:   details,
	}).Error
}

// Recent 返回最近 limit 条审计记录，新的在前。
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 10
	}
	var entries []AuditEntry
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
