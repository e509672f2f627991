package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/report"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

// fakeCatalog 内存版目录，可按 VIN 注入单条失败
type fakeCatalog struct {
	vehicles map[string]vehicle.Vehicle // by id
	listErr  error
	failVINs map[string]bool
}

func newFakeCatalog(vs ...vehicle.Vehicle) *fakeCatalog {
	c := &fakeCatalog{vehicles: map[string]vehicle.Vehicle{}, failVINs: map[string]bool{}}
	for _, v := range vs {
		c.vehicles[v.ID] = v
	}
	return c
}

func (c *fakeCatalog) ListAll(ctx context.Context) ([]vehicle.Vehicle, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []vehicle.Vehicle
	for _, v := range c.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCatalog) FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	v, ok := c.vehicles[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &v, nil
}

func (c *fakeCatalog) Create(ctx context.Context, v *vehicle.Vehicle) error {
	if c.failVINs[strings.ToUpper(v.VIN)] {
		return errors.New("insert failed")
	}
	c.vehicles[v.ID] = *v
	return nil
}

func (c *fakeCatalog) UpdatePriceMileage(ctx context.Context, id, price, mileage string) error {
	v, ok := c.vehicles[id]
	if !ok {
		return errors.New("not found")
	}
	if c.failVINs[strings.ToUpper(v.VIN)] {
		return errors.New("update failed")
	}
	v.Price = price
	v.Mileage = mileage
	c.vehicles[id] = v
	return nil
}

func (c *fakeCatalog) Delete(ctx context.Context, id string) error {
	v, ok := c.vehicles[id]
	if ok && c.failVINs[strings.ToUpper(v.VIN)] {
		return errors.New("delete failed")
	}
	delete(c.vehicles, id)
	return nil
}

func (c *fakeCatalog) vinSet() map[string]bool {
	set := map[string]bool{}
	for _, v := range c.vehicles {
		if v.VIN != "" {
			set[strings.ToUpper(v.VIN)] = true
		}
	}
	return set
}

type fakePhotos struct {
	deleted []string
}

func (p *fakePhotos) DeleteAll(ctx context.Context, vin string) error {
	p.deleted = append(p.deleted, strings.ToUpper(vin))
	return nil
}

func parsed(vin, price, mileage string) report.ParsedVehicle {
	return report.ParsedVehicle{
		Year: "2015", Make: "Ford", Model: "Edge",
		VIN: vin, Price: price, Mileage: mileage,
	}
}

func TestSyncAddUpdateRemove(t *testing.T) {
	catalog := newFakeCatalog(
		vehicle.Vehicle{ID: "a", VIN: "VINAAA1111111A111", Price: "9000", Status: vehicle.StatusNotPosted},
		vehicle.Vehicle{ID: "b", VIN: "VINBBB2222222B222", Price: "8000", Status: vehicle.StatusNotPosted},
	)
	photos := &fakePhotos{}
	syncer := NewSyncer(catalog, photos, logger.NewNop())

	sum, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("VINBBB2222222B222", "7500", "88000"), // 价格变化
		parsed("VINCCC3333333C333", "6000", "70000"), // 新车
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sum.Added != 1 || sum.Updated != 1 || sum.Removed != 1 || sum.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Total != 2 {
		t.Fatalf("expected total 2, got %d", sum.Total)
	}

	vins := catalog.vinSet()
	if len(vins) != 2 || !vins["VINBBB2222222B222"] || !vins["VINCCC3333333C333"] {
		t.Fatalf("unexpected final VIN set: %v", vins)
	}
	if len(photos.deleted) != 1 || photos.deleted[0] != "VINAAA1111111A111" {
		t.Fatalf("expected photos removed for sold vehicle, got %v", photos.deleted)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	catalog := newFakeCatalog()
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())
	batch := []report.ParsedVehicle{
		parsed("VINAAA1111111A111", "9000", "50000"),
		parsed("VINBBB2222222B222", "8000", "60000"),
	}

	if _, err := syncer.Sync(context.Background(), batch); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	sum, err := syncer.Sync(context.Background(), batch)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if sum.Added != 0 || sum.Updated != 0 || sum.Removed != 0 || sum.Skipped != 0 {
		t.Fatalf("expected second run to be a no-op, got %+v", sum)
	}
}

func TestSyncVINMatchingIsCaseInsensitive(t *testing.T) {
	catalog := newFakeCatalog(
		vehicle.Vehicle{ID: "a", VIN: "1A2B3C4D5E6F7G8H9", Price: "9000"},
	)
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())

	sum, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("1a2b3c4d5e6f7g8h9", "8500", "50000"),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sum.Added != 0 || sum.Updated != 1 || sum.Removed != 0 {
		t.Fatalf("expected case-insensitive match, got %+v", sum)
	}
}

func TestSyncFiltersUnpricedRowsAndDedupes(t *testing.T) {
	catalog := newFakeCatalog()
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())

	sum, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("VINAAA1111111A111", "", "50000"),     // 无价格：批发行
		parsed("VINBBB2222222B222", "0", "50000"),    // 非正数
		parsed("VINCCC3333333C333", "9000", "50000"), // 正常
		parsed("vinccc3333333c333", "9100", "50000"), // 重复 VIN（大小写不同）
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sum.Added != 1 {
		t.Fatalf("expected only priced deduped row added, got %+v", sum)
	}
}

func TestSyncNeverTouchesRecordsWithoutVIN(t *testing.T) {
	catalog := newFakeCatalog(
		vehicle.Vehicle{ID: "manual", VIN: "", Price: "4000"},
	)
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())

	sum, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("VINAAA1111111A111", "9000", "50000"),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sum.Removed != 0 {
		t.Fatalf("expected no-VIN record untouched, got %+v", sum)
	}
	if _, ok := catalog.vehicles["manual"]; !ok {
		t.Fatalf("expected no-VIN record to survive")
	}
}

func TestSyncCountsSkippedAndContinues(t *testing.T) {
	catalog := newFakeCatalog(
		vehicle.Vehicle{ID: "a", VIN: "VINAAA1111111A111", Price: "9000"},
	)
	catalog.failVINs["VINBBB2222222B222"] = true
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())

	sum, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("VINAAA1111111A111", "8500", "50000"),
		parsed("VINBBB2222222B222", "8000", "60000"), // 注入失败
		parsed("VINCCC3333333C333", "6000", "70000"),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sum.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", sum)
	}
	if sum.Updated != 1 || sum.Added != 1 {
		t.Fatalf("expected other rows processed, got %+v", sum)
	}
}

func TestSyncAbortsWhenBaselineUnavailable(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.listErr = errors.New("db down")
	syncer := NewSyncer(catalog, &fakePhotos{}, logger.NewNop())

	if _, err := syncer.Sync(context.Background(), []report.ParsedVehicle{
		parsed("VINAAA1111111A111", "9000", "50000"),
	}); err == nil {
		t.Fatalf("expected sync to abort without a baseline")
	}
}

func TestDeleteVehicleCleansPhotosFirst(t *testing.T) {
	catalog := newFakeCatalog(
		vehicle.Vehicle{ID: "a", VIN: "VINAAA1111111A111"},
	)
	photos := &fakePhotos{}
	syncer := NewSyncer(catalog, photos, logger.NewNop())

	if err := syncer.DeleteVehicle(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}
	if len(photos.deleted) != 1 {
		t.Fatalf("expected photos deleted, got %v", photos.deleted)
	}
	if len(catalog.vehicles) != 0 {
		t.Fatalf("expected record removed")
	}
}
