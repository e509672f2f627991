package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/report"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

// CatalogStore 对账引擎需要的目录读写能力，vehicle.Repo 是生产实现。
type CatalogStore interface {
	ListAll(ctx context.Context) ([]vehicle.Vehicle, error)
	FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error)
	Create(ctx context.Context, v *vehicle.Vehicle) error
	UpdatePriceMileage(ctx context.Context, id, price, mileage string) error
	Delete(ctx context.Context, id string) error
}

// Summary 一次对账的分项计数。部分成功是常态，所以对外报计数而不是单个成败。
type Summary struct {
	Added   int // 新入库
	Updated int // 价格或里程有实际变化
	Removed int // 从报表消失，按已售出清理
	Skipped int // 单条读写失败被跳过
	Total   int // 本次报表解析出的总数
}

// Syncer 以 VIN 为自然键，把新一期报表与既有目录对齐。
//
// 只归它管的事：目录成员关系（新建/删除）和已有记录的价格、里程。
// 描述、照片、发布状态一概不碰，重新同步不能抹掉已生成的营销素材。
type Syncer struct {
	catalog CatalogStore
	photos  vehicle.PhotoStore
	log     logger.Logger
}

func NewSyncer(catalog CatalogStore, photos vehicle.PhotoStore, log logger.Logger) *Syncer {
	return &Syncer{catalog: catalog, photos: photos, log: log}
}

// Sync 执行对账：
//  1. 过滤无价格行（批发/置换行，不上架），按大写 VIN 去重
//  2. 命中已有 VIN 的只刷新价格里程，且仅在值有变化时落库
//  3. 未命中的按新车入库（not_posted，无照片无描述）
//  4. 既有记录的 VIN 不在本期报表中的视为已售出：先删照片再删记录
//
// 单条失败计入 Skipped 继续处理；拿不到既有目录基线则整趟失败。
// 没有 VIN 的既有记录不参与匹配，也永远不会被自动删除。
func (s *Syncer) Sync(ctx context.Context, batch []report.ParsedVehicle) (Summary, error) {
	sum := Summary{Total: len(batch)}
	if s == nil || s.catalog == nil {
		return sum, fmt.Errorf("syncer not initialized")
	}

	existing, err := s.catalog.ListAll(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to fetch existing catalog: %w", err)
	}

	existingByVIN := make(map[string]*vehicle.Vehicle)
	for i := range existing {
		if vin := strings.ToUpper(strings.TrimSpace(existing[i].VIN)); vin != "" {
			existingByVIN[vin] = &existing[i]
		}
	}

	incoming := dedupeByVIN(filterSellable(batch))
	incomingVINs := make(map[string]bool, len(incoming))
	for _, p := range incoming {
		if vin := strings.ToUpper(strings.TrimSpace(p.VIN)); vin != "" {
			incomingVINs[vin] = true
		}
	}

	for _, p := range incoming {
		vin := strings.ToUpper(strings.TrimSpace(p.VIN))
		if ev, ok := existingByVIN[vin]; vin != "" && ok {
			if ev.Price == p.Price && ev.Mileage == p.Mileage {
				continue // 没有实际变化，保持幂等
			}
			if err := s.catalog.UpdatePriceMileage(ctx, ev.ID, p.Price, p.Mileage); err != nil {
				s.log.Errorf("update failed for VIN %s: %v", vin, err)
				sum.Skipped++
				continue
			}
			sum.Updated++
			continue
		}

		rec := newRecord(p)
		if err := s.catalog.Create(ctx, rec); err != nil {
			s.log.Errorf("insert failed for VIN %s: %v", p.VIN, err)
			sum.Skipped++
			continue
		}
		sum.Added++
	}

	// 报表里消失的车按已售出处理，不可逆
	for vin, ev := range existingByVIN {
		if incomingVINs[vin] {
			continue
		}
		if s.photos != nil {
			if err := s.photos.DeleteAll(ctx, ev.VIN); err != nil {
				s.log.Warnf("photo cleanup failed for VIN %s: %v", ev.VIN, err)
			}
		}
		if err := s.catalog.Delete(ctx, ev.ID); err != nil {
			s.log.Errorf("delete failed for VIN %s: %v", ev.VIN, err)
			sum.Skipped++
			continue
		}
		sum.Removed++
	}

	s.log.Infof("sync complete: %d added, %d updated, %d removed, %d skipped",
		sum.Added, sum.Updated, sum.Removed, sum.Skipped)
	return sum, nil
}

// DeleteVehicle 手工下架单台车：先清照片再删记录。
func (s *Syncer) DeleteVehicle(ctx context.Context, id string) error {
	if s == nil || s.catalog == nil {
		return fmt.Errorf("syncer not initialized")
	}
	v, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("vehicle not found: %w", err)
	}
	if v.VIN != "" && s.photos != nil {
		if err := s.photos.DeleteAll(ctx, v.VIN); err != nil {
			s.log.Warnf("photo cleanup failed for VIN %s: %v", v.VIN, err)
		}
	}
	return s.catalog.Delete(ctx, id)
}

// filterSellable 去掉价格缺失或非正数的行：报表里的批发、置换车
// 不参与上架，也不应该进目录。
func filterSellable(batch []report.ParsedVehicle) []report.ParsedVehicle {
	out := make([]report.ParsedVehicle, 0, len(batch))
	for _, p := range batch {
		n, err := strconv.Atoi(p.Price)
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// dedupeByVIN 按大写 VIN 去重，保留首次出现的行；无 VIN 的行全保留。
func dedupeByVIN(batch []report.ParsedVehicle) []report.ParsedVehicle {
	seen := make(map[string]bool, len(batch))
	out := make([]report.ParsedVehicle, 0, len(batch))
	for _, p := range batch {
		vin := strings.ToUpper(strings.TrimSpace(p.VIN))
		if vin != "" {
			if seen[vin] {
				continue
			}
			seen[vin] = true
		}
		out = append(out, p)
	}
	return out
}

// newRecord 把解析结果落成目录记录：发布状态从 not_posted 开始，
// 照片与描述留空，等外部流程补齐。
func newRecord(p report.ParsedVehicle) *vehicle.Vehicle {
	return &vehicle.Vehicle{
		ID:           uuid.NewString(),
		Year:         p.Year,
		Make:         p.Make,
		Model:        p.Model,
		Trim:         p.Trim,
		VIN:          strings.TrimSpace(p.VIN),
		StockNumber:  p.StockNumber,
		Price:        p.Price,
		Mileage:      p.Mileage,
		Body:         p.Body,
		Color:        p.Color,
		VehicleClass: p.VehicleClass,
		RecallStatus: p.RecallStatus,
		Disposition:  p.Disposition,
		Status:       vehicle.StatusNotPosted,
	}
}
