package user

import (
	"fmt"
	"time"
)

// Role is the closed set of base identities. It is a tagged enum internally;
// strings appear only at the HTTP boundary and in storage.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCollege Role = "college"
	RoleStudent Role = "student"
)

// ParseRole maps a boundary string onto the enum, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleCollege, RoleStudent:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role: %q", s)
	}
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         Role      `gorm:"column:role;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
