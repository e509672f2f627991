package posting

import "time"

// 审计动作，追加写入 posting_log。
const (
	ActionQueued = "queued"
	ActionPosted = "posted"
	ActionFailed = "failed"
)

// DailyPostCount 是 posting_daily_count 表的 GORM 模型：
// 按服务器本地日期记一行，计数在一天内只增不减，当天首次发布成功时惰性创建。
type DailyPostCount struct {
	Date       string     `gorm:"primaryKey;size:10"` // YYYY-MM-DD
	Count      int        `gorm:"not null;default:0"`
	LastPostAt *time.Time // 当天最后一次发布成功时间
}

// AuditEntry 是 posting_log 表的 GORM 模型：发布生命周期的只追加审计记录，
// 本核心从不修改或删除已有条目。
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	VehicleID string    `gorm:"index;size:36;not null"`
	Action    string    `gorm:"size:16;not null"` // queued / posted / failed
	Details   string    `gorm:"size:512"`         // 失败原因或挂牌 URL
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 固定为 posting_log
func (AuditEntry) TableName() string {
	return "posting_log"
}

// DateKey 日期键格式（服务器本地时区）。
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
