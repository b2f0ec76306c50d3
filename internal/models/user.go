package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles known to the gate. Authentication itself happens upstream of this
// service; callers pass an actor id and the gate resolves the role from here.
const (
	RoleCustomer = "customer"
	RoleTailor   = "tailor"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Mobile    string         `gorm:"size:15;uniqueIndex" json:"mobile"`
	Role      string         `gorm:"size:20;not null;default:'customer'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsStaff() bool { return u.Role == RoleStaff || u.Role == RoleAdmin }
