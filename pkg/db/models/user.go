package models

import (
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/enums"
)

// User is a campus member known by netid. Identity comes from the external login provider.
type User struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	NetID     string         `gorm:"column:netid;type:text;not null;uniqueIndex"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Email     string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'consumer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// IsStaff reports whether the user may use the staff dashboard.
func (u User) IsStaff() bool {
	return u.Role == enums.UserRoleStaff
}
