package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "auth").Logger()

// UserStore is the slice of user persistence the auth service needs.
type UserStore interface {
	CreateWithCart(ctx context.Context, u *shop.User) error
	GetByEmail(ctx context.Context, email string) (shop.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (shop.User, error)
}

type Claims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to request contexts.
type Identity struct {
	UserID uuid.UUID
	Staff  bool
}

type Service struct {
	Users      UserStore
	Redis      *redis.Client // optional: session tokens are also self-validating
	Secret     []byte
	SessionTTL time.Duration
}

// Register hashes the password and creates the user together with their
// cart.
func (s *Service) Register(ctx context.Context, email, password string) (shop.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return shop.User{}, fmt.Errorf("email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return shop.User{}, err
	}
	u := shop.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Users.CreateWithCart(ctx, &u); err != nil {
		return shop.User{}, err
	}
	logger.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// Login verifies the credential and issues a signed session token. The token
// is mirrored into Redis so sessions can be revoked server-side.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return "", shop.ErrInvalidCredential
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", shop.ErrInvalidCredential
	}

	claims := &Claims{
		Staff: u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.SessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", err
	}

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeySession, u.ID)
		if err := s.Redis.Set(ctx, key, token, s.SessionTTL).Err(); err != nil {
			logger.Warn().Err(err).Msg("session cache write failed")
		}
	}
	return token, nil
}

// VerifyPassword is the credential re-confirmation collaborator used by
// checkout. It never reveals whether the user or the password was wrong.
func (s *Service) VerifyPassword(ctx context.Context, userID uuid.UUID, plaintext string) (bool, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil, nil
}

// ParseToken validates a bearer token and returns the caller identity.
func (s *Service) ParseToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, shop.ErrInvalidCredential
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, shop.ErrInvalidCredential
	}
	return Identity{UserID: uid, Staff: claims.Staff}, nil
}
