package permission

import "time"

// Permission rows are reference data written only by the seeder.
type Permission struct {
	ID          int64     `gorm:"primaryKey" db:"id"`
	Codename    string    `gorm:"column:codename;uniqueIndex;not null" db:"codename"`
	Name        string    `gorm:"column:name;not null" db:"name"`
	Module      string    `gorm:"column:module;index;not null" db:"module"`
	Description *string   `gorm:"column:description" db:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}
