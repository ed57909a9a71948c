package models

import (
	"time"

	"github.com/lib/pq"
)

// RepProfile is one sales rep (or manager). Lookup data for the trend
// pipeline: never written by it.
type RepProfile struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;index" json:"user_id"` // supabase auth uuid
	FullName string `gorm:"column:full_name;type:text" json:"full_name"`
	Email    string `gorm:"column:email;type:text" json:"email"`
	Role     string `gorm:"column:role;type:text" json:"role"` // "rep" | "manager"

	TeamID *string `gorm:"column:team_id;type:uuid;index" json:"team_id,omitempty"`
	Active bool    `gorm:"column:active" json:"active"`

	Specialties pq.StringArray `gorm:"column:specialties;type:text[]" json:"specialties"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (RepProfile) TableName() string { return "rep_profiles" }

type Team struct {
	ID   string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string `gorm:"column:name;type:text" json:"name"`
}

func (Team) TableName() string { return "teams" }
