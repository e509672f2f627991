package vehicle

import "time"

// Status 车辆发布状态枚举（持久化为字符串）。
type Status string

const (
	StatusNotPosted Status = "not_posted" // 初始状态，未进入发布流程
	StatusQueued    Status = "queued"     // 已排队，等待调度器处理
	StatusPosting   Status = "posting"    // 调度器正在发布（瞬态）
	StatusPosted    Status = "posted"     // 已发布（终态）
	StatusFailed    Status = "failed"     // 发布失败，可重新排队
)

// Vehicle 是 vehicles 表的 GORM 模型，即车辆目录记录。
//
// 字段归属约定：
// - 目录成员关系（新建/删除）与 Price/Mileage 由对账引擎负责
// - Status/QueuedAt 由发布状态机负责
// - posting/posted/failed 的流转及 PostedAt/ListingURL 由发布调度器负责
// 价格和里程沿用报表口径，存去掉千分位的纯数字串。
type Vehicle struct {
	ID string `gorm:"primaryKey;size:36"`

	Year        string `gorm:"size:8;not null"`
	Make        string `gorm:"size:32;not null"`
	Model       string `gorm:"size:64"`
	Trim        string `gorm:"size:64"`
	VIN         string `gorm:"index;size:32"` // 可为空；非空时大小写不敏感唯一
	StockNumber string `gorm:"size:32"`
	Price       string `gorm:"size:16"`
	Mileage     string `gorm:"size:16"`

	Body         string `gorm:"size:128"`
	Color        string `gorm:"size:64"`
	VehicleClass string `gorm:"size:64"`
	RecallStatus string `gorm:"size:64"`
	Disposition  string `gorm:"size:64"`

	// 营销素材，由外部协作方生成后写入；对账更新时不触碰
	Photos      []string `gorm:"serializer:json"`
	Description string   `gorm:"type:text"`

	// 发布生命周期字段
	Status     Status     `gorm:"type:varchar(16);index;not null;default:'not_posted'"`
	QueuedAt   *time.Time // 进入队列时间，unqueue 时清空
	PostedAt   *time.Time // 发布成功时间
	ListingURL string     `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Title 拼出对外展示用的车辆标题，如 "2015 Ford Edge SEL"。
func (v *Vehicle) Title() string {
	title := v.Year + " " + v.Make
	if v.Model != "" {
		title += " " + v.Model
	}
	if v.Trim != "" {
		title += " " + v.Trim
	}
	return title
}
