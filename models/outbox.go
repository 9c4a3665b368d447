package models

import "time"

const (
	OutboxPending   = "pending"
	OutboxDelivered = "delivered"
	OutboxFailed    = "failed"
)

// OutboxEvent is a notification owed to a user, written in the same
// transaction as the order change that caused it. Its ID is reused as the
// notif_id of the sent notification so redelivery overwrites, not duplicates.
type OutboxEvent struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID     string     `gorm:"type:varchar(64);index" json:"order_id"`
	UserID      string     `gorm:"type:varchar(64);not null" json:"user_id"`
	NotifType   string     `gorm:"type:varchar(64);not null" json:"notif_type"`
	Status      string     `gorm:"type:varchar(16);not null;index" json:"status"`
	Attempts    int        `gorm:"not null" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func (OutboxEvent) TableName() string { return "notification_outbox" }
