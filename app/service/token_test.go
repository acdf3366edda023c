package service_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"testing"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
	"github.com/massivemarketmanager/ms-go-trading/app/service"
	"github.com/massivemarketmanager/ms-go-trading/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func newTokenService(t *testing.T, db *sql.DB, cfg *config.Config, opts ...service.TokenServiceOption) *service.TokenService {
	t.Helper()

	if cfg == nil {
		cfg = newTestConfig()
	}
	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	baseOpts := []service.TokenServiceOption{
		service.WithTokenClock(func() time.Time { return testNow }),
	}
	return service.NewTokenService(db, repository.NewRefreshTokenRepository(db), hasher, cfg,
		append(baseOpts, opts...)...)
}

func TestCreateAccessToken_RoundTrip(t *testing.T) {
	svc := newTokenService(t, nil, nil)
	user := &entity.User{ID: 42, Email: "user@test.dev", Role: service.RoleUser, Status: entity.AccountStatusActive}

	token, expiresAt, err := svc.CreateAccessToken(user)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if want := testNow.Add(15 * time.Minute); !expiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, expiresAt)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("expected subject 42, got %q", claims.Subject)
	}
	if claims.Email != "user@test.dev" || claims.Role != service.RoleUser {
		t.Errorf("unexpected claims: email=%s role=%s", claims.Email, claims.Role)
	}
	if claims.Issuer != "mmm-test" {
		t.Errorf("expected issuer mmm-test, got %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
	if userID, err := claims.UserID(); err != nil || userID != 42 {
		t.Errorf("UserID() = %d, %v; want 42, nil", userID, err)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	minting := newTokenService(t, nil, nil)
	user := &entity.User{ID: 1, Email: "user@test.dev", Role: service.RoleUser}

	token, _, err := minting.CreateAccessToken(user)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	otherCfg := newTestConfig()
	otherCfg.JWTSecret = []byte("another-secret-another-secret-xx")
	validating := newTokenService(t, nil, otherCfg)

	if _, err := validating.ValidateAccessToken(token); err != service.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for a foreign signature, got %v", err)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	minting := newTokenService(t, nil, nil)
	user := &entity.User{ID: 1, Email: "user@test.dev", Role: service.RoleUser}

	token, _, err := minting.CreateAccessToken(user)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	later := newTokenService(t, nil, nil,
		service.WithTokenClock(func() time.Time { return testNow.Add(16 * time.Minute) }))
	if _, err := later.ValidateAccessToken(token); err != service.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken past expiry, got %v", err)
	}
}

func TestValidateAccessToken_Malformed(t *testing.T) {
	svc := newTokenService(t, nil, nil)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateAccessToken(input); err != service.ErrInvalidToken {
			t.Errorf("input %q: expected ErrInvalidToken, got %v", input, err)
		}
	}
}

func TestRotateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	seed := bytes.Repeat([]byte{0xAB}, 32)
	svc := newTokenService(t, db, nil, service.WithTokenRandom(bytes.NewReader(seed)))
	user := &entity.User{ID: 5, Email: "user@test.dev", Role: service.RoleUser}

	mock.ExpectBegin()
	mock.ExpectExec(revokeRefreshTokensQuery).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs(uint64(5), sqlmock.AnyArg(), testNow.Add(30*24*time.Hour), testNow, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	plaintext, expiresAt, err := svc.RotateRefreshToken(context.Background(), user)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	if want := base64.RawURLEncoding.EncodeToString(seed); plaintext != want {
		t.Errorf("expected token derived from the random source, got %q", plaintext)
	}
	raw, err := base64.RawURLEncoding.DecodeString(plaintext)
	if err != nil || len(raw) != 32 {
		t.Errorf("token must decode to 32 random bytes, got %d bytes, err %v", len(raw), err)
	}
	if want := testNow.Add(30 * 24 * time.Hour); !expiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, expiresAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	svc := newTokenService(t, db, nil)
	hasher := service.NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("the-live-token")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	activeRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(refreshTokenColumns).
			AddRow(1, uint64(5), hash, testNow.Add(time.Hour), testNow, false)
	}

	mock.ExpectQuery(findActiveRefreshTokensQuery).
		WithArgs(uint64(5), testNow).
		WillReturnRows(activeRows())
	ok, err := svc.ValidateRefreshToken(context.Background(), "the-live-token", 5)
	if err != nil || !ok {
		t.Fatalf("expected the live token to validate, got ok=%v err=%v", ok, err)
	}

	mock.ExpectQuery(findActiveRefreshTokensQuery).
		WillReturnRows(activeRows())
	ok, err = svc.ValidateRefreshToken(context.Background(), "some-other-token", 5)
	if err != nil || ok {
		t.Fatalf("expected a foreign token to fail, got ok=%v err=%v", ok, err)
	}

	// Revoked and expired rows are filtered out in SQL; nothing to compare.
	mock.ExpectQuery(findActiveRefreshTokensQuery).
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns))
	ok, err = svc.ValidateRefreshToken(context.Background(), "the-live-token", 5)
	if err != nil || ok {
		t.Fatalf("expected no active rows to fail validation, got ok=%v err=%v", ok, err)
	}
}
