package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrUserNotFound  = errors.New("user not found")
)

// CreateUser stores a rating owner. passwordHash is produced by the
// registration flow and stored as given; it may be empty for accounts that
// never log in.
func CreateUser(ctx context.Context, gdb *gorm.DB, username, passwordHash string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, errors.New("username is required")
	}

	user := User{Username: username, PasswordHash: passwordHash}
	result := gdb.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return User{}, fmt.Errorf("failed to create user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUsernameTaken
	}
	return user, nil
}

// FindUser looks a user up by name.
func FindUser(ctx context.Context, gdb *gorm.DB, username string) (User, error) {
	var user User
	err := gdb.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return user, err
}
