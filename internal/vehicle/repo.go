package vehicle

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

// Save 整条回写，用于状态机修改生命周期字段之后。
func (r *Repo) Save(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(v).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// ListAll 返回全部目录记录，对账引擎以此为基线。
func (r *Repo) ListAll(ctx context.Context) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var vehicles []Vehicle
	if err := db.Order("created_at asc").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// ListByStatus 按发布状态过滤。queued 按排队时间升序，保证先排先发。
func (r *Repo) ListByStatus(ctx context.Context, status Status) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Where("status = ?", status)
	if status == StatusQueued {
		q = q.Order("queued_at asc")
	} else {
		q = q.Order("created_at asc")
	}
	var vehicles []Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// ListStalePosting 返回停留在 posting 超过给定时间点的记录，
// 调度器启动时用来清理上次崩溃的残留。
func (r *Repo) ListStalePosting(ctx context.Context, before time.Time) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var vehicles []Vehicle
	err := db.Where("status = ? AND updated_at < ?", StatusPosting, before).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdatePriceMileage 对账引擎专用：只刷新价格和里程，
// 不触碰描述、照片和发布状态。
func (r *Repo) UpdatePriceMileage(ctx context.Context, id, price, mileage string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Model(&Vehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{"price": price, "mileage": mileage}).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Delete(&Vehicle{}, "id = ?", id).Error
}

// CountByStatus 状态报表用的计数。
func (r *Repo) CountByStatus(ctx context.Context, status Status) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := db.Model(&Vehicle{}).Where("status = ?", status).Count(&total).Error
	return total, err
}
