// Package model defines database models
package model

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"unique;not null" json:"email"`
	Login        string `gorm:"unique;not null" json:"login"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsSuperAdmin bool   `gorm:"default:false" json:"-"`
	CreatedAt    int64  `gorm:"not null" json:"created_at"`
}
