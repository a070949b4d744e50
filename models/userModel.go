package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleAdmin       = "Admin"
	RoleRegularUser = "RegularUser"
)

type User struct {
	gorm.Model
	FullName                     string         `json:"fullName" gorm:"size:100;not null" validate:"required,max=100"`
	Email                        string         `json:"email" gorm:"size:100;not null;uniqueIndex" validate:"required,email,max=100"`
	ContactInformation           string         `json:"contactInformation" gorm:"size:200;not null" validate:"required,max=200"`
	PreferredCategories          datatypes.JSON `json:"preferredCategories"`
	Password                     string         `json:"-" gorm:"not null"`
	Role                         string         `json:"role" gorm:"size:20;not null"`
	EmailConfirmed               bool           `json:"emailConfirmed"`
	EmailConfirmationToken       string         `json:"-" gorm:"size:64;index"`
	EmailConfirmationTokenExpiry *time.Time     `json:"-"`
	PasswordResetToken           string         `json:"-" gorm:"size:64;index"`
	PasswordResetTokenExpiry     *time.Time     `json:"-"`
	AccessFailedCount            int            `json:"-"`
	LockoutEnd                   *time.Time     `json:"-"`
}

// Principal is the caller identity handed to services. Permission checks are
// made against IsAdmin rather than against the user record.
type Principal struct {
	UserID  uint   `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// Anonymous is the principal of a request without a valid session.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

func (p Principal) HasRole(role string) bool {
	return p.Authenticated() && p.Role == role
}

type LoginData struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"rememberMe" form:"rememberMe"`
}
