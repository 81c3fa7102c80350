package models

import "time"

// Reference entities synced ahead of products so foreign ids resolve locally.

type Outlet struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	TimeZone  string     `gorm:"column:time_zone"`
	Version   int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt *time.Time `gorm:"column:created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	SyncedAt  time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (Outlet) TableName() string { return "shadow_outlets" }

type Category struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	ParentID  *string    `gorm:"column:parent_id"`
	Version   int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt *time.Time `gorm:"column:created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	SyncedAt  time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (Category) TableName() string { return "shadow_categories" }

type Brand struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Version   int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt *time.Time `gorm:"column:created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	SyncedAt  time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (Brand) TableName() string { return "shadow_brands" }

type Supplier struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description"`
	Email       string     `gorm:"column:email"`
	Phone       string     `gorm:"column:phone"`
	Version     int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt   *time.Time `gorm:"column:created_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
	SyncedAt    time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (Supplier) TableName() string { return "shadow_suppliers" }

// User is a staff account on the remote system, not a local login.
type User struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Username    string     `gorm:"column:username;index"`
	DisplayName string     `gorm:"column:display_name"`
	Email       string     `gorm:"column:email"`
	AccountType string     `gorm:"column:account_type"`
	Version     int64      `gorm:"column:version;not null;default:0;index"`
	CreatedAt   *time.Time `gorm:"column:created_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
	SyncedAt    time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (User) TableName() string { return "shadow_users" }
