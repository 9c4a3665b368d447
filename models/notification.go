package models

const (
	MethodEmail = "email"
	MethodText  = "text"
	// MethodSMS is used when the account's preference cannot be read.
	MethodSMS = "SMS"
)

var NotificationMethods = []string{MethodEmail, MethodText, MethodSMS}

func IsValidNotificationMethod(s string) bool { return contains(NotificationMethods, s) }

// NotificationType is a message template addressed by ID.
type NotificationType struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type        string `gorm:"type:varchar(255);not null" json:"type"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Message     string `gorm:"type:text;not null" json:"message"`
}

func (NotificationType) TableName() string { return "notification_types" }

// SentNotification records that a template was dispatched to an account.
type SentNotification struct {
	NotifID   string    `gorm:"primaryKey;type:varchar(64)" json:"notif_id"`
	AccountID string    `gorm:"column:account_id;type:varchar(64);index" json:"id"`
	NotifType string    `gorm:"type:varchar(64);index" json:"notif_type"`
	TimeSent  Timestamp `gorm:"index" json:"time_sent"`
	Method    string    `gorm:"type:varchar(16)" json:"method"`
}

func (SentNotification) TableName() string { return "sent_notifications" }

// DefaultNotificationTypes seeds an empty notification_types table. Order
// statuses refer to these IDs.
var DefaultNotificationTypes = []NotificationType{
	{ID: "1", Type: "Order Received", Message: "The restaurant has received your order!"},
	{ID: "2", Type: "Food being prepared", Message: "The restaurant is preparing your order!"},
	{ID: "3", Type: "Food is out for delivery", Message: "Your order is out for delivery!"},
	{ID: "4", Type: "Ticket Logged", Message: "Customer Support has received your ticket, a representative will be in contact shortly"},
	{ID: "5", Type: "Ticket under investigation", Message: "Customer Support is investigating your ticket, a representative will be in contact shortly"},
	{ID: "6", Type: "Ticket resolved", Message: "Customer Support marked your ticket as resolved"},
	{ID: "7", Type: "Password Update", Message: "Your account Password has been changed. If this was not you, please contact Customer Support immediately"},
	{ID: "8", Type: "Order Ready for Pickup", Message: "Your order is ready for pickup"},
	{ID: "9", Type: "Order Cancelled", Message: "Your order has been cancelled"},
	{ID: "10", Type: "Order Delivered", Message: "Your order has been delivered"},
}
