package models

import "time"

// Customer is the shadow copy of a remote customer record.
type Customer struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Code      string     `gorm:"column:code;index"`
	FirstName string     `gorm:"column:first_name"`
	LastName  string     `gorm:"column:last_name"`
	Email     string     `gorm:"column:email;index"`
	Phone     string     `gorm:"column:phone"`
	Company   string     `gorm:"column:company"`
	GroupID   *string    `gorm:"column:group_id"`
	Version   int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt *time.Time `gorm:"column:created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	SyncedAt  time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "shadow_customers" }
