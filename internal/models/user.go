package models

import (
	"time"

	"gorm.io/gorm"
)

// GuardRole is a closed set; transition legality branches on it, so adding a
// role is a compile-visible change rather than a new string comparison.
type GuardRole string

const (
	RoleGateGuard     GuardRole = "caseta"
	RoleBuildingGuard GuardRole = "edificio"
	RoleSupervisor    GuardRole = "supervisor"
	RoleAdmin         GuardRole = "admin"
)

// Valid reports whether the role is one of the known variants.
func (r GuardRole) Valid() bool {
	switch r {
	case RoleGateGuard, RoleBuildingGuard, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// GuardAuth represents a guard account.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type GuardAuth struct {
	ID                  string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username            string     `gorm:"unique;not null" json:"username"`
	Password            string     `gorm:"not null" json:"-"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Name                string     `json:"name,omitempty"`
	Role                GuardRole  `gorm:"type:varchar(20);default:'caseta'" json:"role"`
	Turno               string     `json:"turno,omitempty"` // matutino, vespertino, nocturno
	IsActive            bool       `gorm:"default:true" json:"isActive"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GuardAuth model
func (GuardAuth) TableName() string {
	return "guard_auths"
}
