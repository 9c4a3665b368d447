package models

import "time"

const (
	GuestAccountID = "guest"

	// LastLoginPlaceholder marks an account that has never logged in. It
	// sorts before every real login time.
	LastLoginPlaceholder = "0000-00T00:00:00"

	NotifByEmail = "email"
	NotifByText  = "text"
)

// AccountTypes keeps the historical "restaraunt_employee" spelling; stored
// records depend on it.
var AccountTypes = []string{
	"restaraunt_employee",
	"standard_user",
	"business_user",
	"customer_service_rep",
	"delivery_driver",
	"admin",
	"guest",
}

var NotifPreferences = []string{NotifByEmail, NotifByText}

type Account struct {
	ID              string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username        string `gorm:"type:varchar(255);not null" json:"username"`
	NotifPreference string `gorm:"type:varchar(16);not null" json:"notif_preference"`
	UserType        string `gorm:"type:varchar(32);not null;index" json:"user_type"`
	Inactive        bool   `gorm:"not null" json:"inactive"`
	Email           string `gorm:"type:varchar(255);index" json:"email"`
	Password        string `gorm:"type:varchar(255)" json:"-"`
	LastLogin       string `gorm:"type:varchar(32)" json:"last_login"`
}

func (Account) TableName() string { return "accounts" }

func IsValidAccountType(s string) bool { return contains(AccountTypes, s) }

func IsValidNotifPreference(s string) bool { return contains(NotifPreferences, s) }

// FormatLoginTime renders t the way last_login is stored.
func FormatLoginTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewGuestAccount builds the credential-less fallback identity.
func NewGuestAccount(now time.Time) Account {
	return Account{
		ID:              GuestAccountID,
		Username:        "guest",
		NotifPreference: NotifByEmail,
		UserType:        "guest",
		Inactive:        false,
		Email:           "guest",
		LastLogin:       FormatLoginTime(now),
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
