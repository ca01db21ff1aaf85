package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

const tokenTTL = 24 * time.Hour

// Service defines admin authentication business logic.
type Service interface {
	// Login verifies credentials and returns a signed session token.
	Login(ctx context.Context, email, password string) (string, error)

	// SeedAdmin creates the initial admin account if none exists yet.
	SeedAdmin(ctx context.Context, email, password, fullName string) error
}

type service struct {
	repo   Repository
	secret []byte
}

// NewService creates a new auth service.
func NewService(repo Repository, jwtSecret string) Service {
	return &service{repo: repo, secret: []byte(jwtSecret)}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperr.Validationf("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("invalid credentials: %w", apperr.ErrAccessDenied)
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials: %w", apperr.ErrAccessDenied)
	}

	claims := &jwt.StandardClaims{
		Subject:   u.ID.String(),
		ExpiresAt: time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *service) SeedAdmin(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	log.Printf("auth: seeded initial admin user %s", email)
	return nil
}
