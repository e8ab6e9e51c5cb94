package domain

import (
	"errors"
	"time"
)

type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) ValidateUsername() error {
	if len(u.Username) < 3 {
		return errors.New("username too short")
	}
	return nil
}
