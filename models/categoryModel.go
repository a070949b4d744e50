package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:100;not null" validate:"required,max=100"`
	Description string `json:"description" gorm:"size:500" validate:"max=500"`
}
