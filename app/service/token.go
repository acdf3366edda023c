package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
	"github.com/massivemarketmanager/ms-go-trading/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// TokenService mints and verifies the stateless access tokens and
// manages the stored refresh-token chain.
type TokenService struct {
	db               *sql.DB
	refreshTokenRepo *repository.RefreshTokenRepository
	hasher           *PasswordHasher
	cfg              *config.Config
	now              func() time.Time
	random           io.Reader
}

type TokenServiceOption func(*TokenService)

func NewTokenService(
	db *sql.DB,
	refreshTokenRepo *repository.RefreshTokenRepository,
	hasher *PasswordHasher,
	cfg *config.Config,
	opts ...TokenServiceOption,
) *TokenService {
	svc := &TokenService{
		db:               db,
		refreshTokenRepo: refreshTokenRepo,
		hasher:           hasher,
		cfg:              cfg,
		now:              time.Now,
		random:           rand.Reader,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTokenRandom(random io.Reader) TokenServiceOption {
	return func(s *TokenService) {
		if random != nil {
			s.random = random
		}
	}
}

func (s *TokenService) CreateAccessToken(user *entity.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL)

	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken returns the claims of a well-signed, unexpired
// token. Bad signature, wrong algorithm, expiry and malformed input
// all collapse into ErrInvalidToken.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWTSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RotateRefreshToken revokes every live refresh token of the user and
// issues a single new one inside the same transaction, so a sign-in
// always collapses older sessions. The plaintext leaves this function
// exactly once; only its bcrypt hash is stored.
func (s *TokenService) RotateRefreshToken(ctx context.Context, user *entity.User) (string, time.Time, error) {
	plaintext, err := s.generateSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	tokenHash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.RefreshTokenTTL)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	defer tx.Rollback()

	txRepo := s.refreshTokenRepo.WithTx(tx)
	if _, err = txRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return "", time.Time{}, err
	}

	if err = txRepo.Create(ctx, &entity.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return "", time.Time{}, err
	}

	if err = tx.Commit(); err != nil {
		return "", time.Time{}, err
	}

	return plaintext, expiresAt, nil
}

// ValidateRefreshToken rehash-compares the plaintext against the
// user's active rows. Revoked or expired rows are terminal and never
// considered.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, plaintext string, userID uint64) (bool, error) {
	tokens, err := s.refreshTokenRepo.FindActiveByUserID(ctx, userID, s.now())
	if err != nil {
		return false, err
	}

	for _, token := range tokens {
		if s.hasher.Verify(plaintext, token.TokenHash) {
			return true, nil
		}
	}
	return false, nil
}

func (s *TokenService) generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
