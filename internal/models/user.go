// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Level is the role a user holds.
type Level int

const (
	// LevelOrdinary is the role every registered user starts with.
	LevelOrdinary Level = 1
	// LevelAdmin grants access to the administration routes.
	LevelAdmin Level = 2
)

// IsAdmin reports whether the level grants administrator access.
func (l Level) IsAdmin() bool {
	return l == LevelAdmin
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == LevelOrdinary || l == LevelAdmin
}

// User represents an account of the community.
type User struct {
	ID           uint      `gorm:"column:cod_usuario;primaryKey" json:"cod_usuario"`
	Name         string    `gorm:"column:nome;size:255;not null" json:"nome"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex:usuario_email_key" json:"email"`
	Password     string    `gorm:"column:password;not null" json:"-"`
	Level        Level     `gorm:"column:level;not null;default:1" json:"level"`
	ProfileImage *string   `gorm:"column:profileImage" json:"profileImage"`
	CreatedAt    time.Time `gorm:"column:createdat;autoCreateTime" json:"createdat"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "usuario"
}

// Author is the public summary of a user embedded in posts.
type Author struct {
	ID           uint    `gorm:"column:cod_usuario;primaryKey" json:"cod_usuario"`
	Name         string  `gorm:"column:nome" json:"nome"`
	ProfileImage *string `gorm:"column:profileImage" json:"profileImage"`
}

// TableName returns the database table name for Author.
func (Author) TableName() string {
	return "usuario"
}
