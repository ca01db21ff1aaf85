package auth

import "context"

// Repository defines admin account storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*AdminUser, error)
	Create(ctx context.Context, u *AdminUser) error
	Count(ctx context.Context) (int, error)
}
