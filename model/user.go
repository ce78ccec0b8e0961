package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billingcat/leadboard/leadtable"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = fmt.Errorf("user not found")
	ErrTokenExpired  = fmt.Errorf("token expired")
	ErrTokenInvalid  = fmt.Errorf("token invalid")
	ErrTokenNotFound = fmt.Errorf("token not found")
	ErrTokenDisabled = fmt.Errorf("token disabled")
)

// NormalizeEmail lowercases and trims the email string
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// User is a dashboard user and, at the same time, a possible lead creator
// or assignee.
type User struct {
	gorm.Model
	Name  string
	Email string `gorm:"uniqueIndex;not null"`
	Role  string `gorm:"size:32;not null"`
}

// Normalize email before saving
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// ViewerRole returns the parsed role of the user.
func (u *User) ViewerRole() (leadtable.ViewerRole, error) {
	return leadtable.ParseViewerRole(u.Role)
}

// SaveUser creates or updates a user. The role must be a known viewer role.
func (s *Store) SaveUser(ctx context.Context, u *User) error {
	r, err := leadtable.ParseViewerRole(u.Role)
	if err != nil {
		return err
	}
	u.Role = string(r)
	return s.db.WithContext(ctx).Save(u).Error
}

// GetUserByID loads a user.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	u := &User{}
	if err := s.db.WithContext(ctx).First(u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetUserByEmail loads a user by (normalized) e-mail address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
