package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrSeedCredentials = errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required to seed an admin")

// SeedAdmin creates the first admin account. Once any admin exists it does
// nothing and reports false.
func (s Storage) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.Admins.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		return false, ErrSeedCredentials
	}

	admin := &Admin{Email: email}
	if err := admin.Password.Set(password); err != nil {
		return false, err
	}
	if err := s.Admins.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
