package model

import "time"

type Role string

var (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type UserStatus string

var (
	UserPending  UserStatus = "pending"
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserPending, UserActive, UserDisabled:
		return true
	}
	return false
}

type User struct {
	ID           int64      `gorm:"column:id;primaryKey" json:"id"`
	Name         string     `gorm:"column:name;size:100;not null" json:"name"`
	Email        string     `gorm:"column:email;size:191;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         Role       `gorm:"column:role;size:10;not null;default:user" json:"role"`
	Status       UserStatus `gorm:"column:status;size:10;not null;default:pending;index" json:"status"`
	CountryID    *int64     `gorm:"column:country_id" json:"country_id"`
	ApprovedBy   *int64     `gorm:"column:approved_by" json:"approved_by"`
	ApprovedAt   *time.Time `gorm:"column:approved_at" json:"approved_at"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (m *User) TableName() string {
	return "users"
}

type UserWithCountry struct {
	User
	CountryName *string `gorm:"column:country_name" json:"country_name"`
}

type UserFilter struct {
	Status UserStatus
	Role   Role
}

// UserUpdate holds the profile fields an admin may edit.
type UserUpdate struct {
	Name      string
	Email     string
	Role      Role
	CountryID *int64
}
