package models

import "time"

// Tenant is a company; every user and task belongs to exactly one.
type Tenant struct {
	ID        string    `gorm:"primarykey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users []User `gorm:"foreignKey:TenantID" json:"-"`
}
