package journal

import "time"

type Entry struct {
	ID         int64     `gorm:"primaryKey"`
	EventID    string    `gorm:"column:event_id;uniqueIndex;not null"`
	EventType  string    `gorm:"column:event_type;not null"`
	Operation  string    `gorm:"column:operation;not null"`
	Actor      string    `gorm:"column:actor"`
	UserID     int64     `gorm:"column:user_id;index"`
	Success    bool      `gorm:"column:success"`
	Message    string    `gorm:"column:message"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string {
	return "admin_journal"
}
