package models

import "gorm.io/datatypes"

const (
	OrderCreated        = "created"
	OrderBeingPrepared  = "being_prepared"
	OrderOnTheWay       = "on_the_way"
	OrderReadyForPickup = "ready_for_pickup"
	OrderCancelled      = "cancelled"
	OrderDelivered      = "delivered"
)

// OrderStatuses lists every status in lifecycle order. Transitions between
// them are not restricted.
var OrderStatuses = []string{
	OrderCreated,
	OrderBeingPrepared,
	OrderOnTheWay,
	OrderReadyForPickup,
	OrderDelivered,
	OrderCancelled,
}

// orderStatusNotifTypes maps each status to the notification type sent when
// an order enters it.
var orderStatusNotifTypes = map[string]string{
	OrderCreated:        "1",
	OrderBeingPrepared:  "2",
	OrderOnTheWay:       "3",
	OrderReadyForPickup: "8",
	OrderCancelled:      "9",
	OrderDelivered:      "10",
}

func IsValidOrderStatus(s string) bool {
	_, ok := orderStatusNotifTypes[s]
	return ok
}

// NotifTypeForStatus returns the notification type ID for an order status.
func NotifTypeForStatus(status string) (string, bool) {
	t, ok := orderStatusNotifTypes[status]
	return t, ok
}

type OrderItem struct {
	ItemID   string `json:"item_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
}

type Order struct {
	OrderID     string                         `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	UserID      string                         `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Restaurant  string                         `gorm:"type:varchar(255);index" json:"restaurant"`
	Items       datatypes.JSONSlice[OrderItem] `json:"items"`
	TimeCreated Timestamp                      `gorm:"index" json:"time_created"`
	TotalPrice  string                         `gorm:"type:varchar(32)" json:"total_price"`
	OrderStatus string                         `gorm:"type:varchar(32);not null;index" json:"order_status"`
}

func (Order) TableName() string { return "orders" }
