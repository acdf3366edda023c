package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

var refreshTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"expires_at",
	"created_at",
	"revoked",
}

var verificationTokenColumns = []string{
	"id",
	"token",
	"user_id",
	"expires_at",
	"used",
	"used_at",
	"created_at",
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewRefreshTokenRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO refresh_tokens \(user_id, token_hash, expires_at, created_at, revoked\)\s+VALUES \(\?, \?, \?, \?, \?\)`).
		WithArgs(uint64(5), "hash", repoNow.Add(time.Hour), repoNow, false).
		WillReturnResult(sqlmock.NewResult(3, 1))

	token := &entity.RefreshToken{
		UserID:    5,
		TokenHash: "hash",
		ExpiresAt: repoNow.Add(time.Hour),
		CreatedAt: repoNow,
	}
	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if token.ID != 3 {
		t.Errorf("expected the generated id to be written back, got %d", token.ID)
	}
}

func TestRefreshTokenRepository_RevokeAllByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewRefreshTokenRepository(db)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = \? AND revoked = FALSE`).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	revoked, err := repo.RevokeAllByUserID(context.Background(), 5)
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked != 2 {
		t.Errorf("expected 2 revoked rows, got %d", revoked)
	}
}

func TestRefreshTokenRepository_FindActiveByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewRefreshTokenRepository(db)

	mock.ExpectQuery(`(?s)SELECT id, user_id, token_hash, expires_at, created_at, revoked\s+FROM refresh_tokens WHERE user_id = \? AND revoked = FALSE AND expires_at > \?`).
		WithArgs(uint64(5), repoNow).
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns).
			AddRow(1, uint64(5), "hash-a", repoNow.Add(time.Hour), repoNow, false).
			AddRow(2, uint64(5), "hash-b", repoNow.Add(2*time.Hour), repoNow, false))

	tokens, err := repo.FindActiveByUserID(context.Background(), 5, repoNow)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].TokenHash != "hash-a" || tokens[1].TokenHash != "hash-b" {
		t.Errorf("unexpected rows: %+v", tokens)
	}
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewRefreshTokenRepository(db)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \?`).
		WithArgs(repoNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	if err := repo.DeleteExpired(context.Background(), repoNow); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestEmailVerificationTokenRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewEmailVerificationTokenRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO email_verification_tokens \(token, user_id, expires_at, used, created_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`).
		WithArgs("tok-1", uint64(5), repoNow.Add(24*time.Hour), false, repoNow).
		WillReturnResult(sqlmock.NewResult(9, 1))

	token := &entity.EmailVerificationToken{
		Token:     "tok-1",
		UserID:    5,
		ExpiresAt: repoNow.Add(24 * time.Hour),
		CreatedAt: repoNow,
	}
	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if token.ID != 9 {
		t.Errorf("expected the generated id to be written back, got %d", token.ID)
	}
}

func TestEmailVerificationTokenRepository_FindByTokenForUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewEmailVerificationTokenRepository(db)

	mock.ExpectQuery(`(?s)SELECT id, token, user_id, expires_at, used, used_at, created_at\s+FROM email_verification_tokens WHERE token = \? FOR UPDATE`).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows(verificationTokenColumns).
			AddRow(9, "tok-1", uint64(5), repoNow.Add(24*time.Hour), false, nil, repoNow))

	evt, err := repo.FindByTokenForUpdate(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if evt == nil {
		t.Fatal("expected a token row")
	}
	if evt.ID != 9 || evt.UserID != 5 || evt.Used {
		t.Errorf("unexpected row: %+v", evt)
	}
	if evt.UsedAt.Valid {
		t.Error("used_at must scan as null for an unused token")
	}
}

func TestEmailVerificationTokenRepository_FindByTokenNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewEmailVerificationTokenRepository(db)

	mock.ExpectQuery(`FROM email_verification_tokens WHERE token = \?`).
		WillReturnRows(sqlmock.NewRows(verificationTokenColumns))

	evt, err := repo.FindByTokenForUpdate(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("a missing row is not an error: %v", err)
	}
	if evt != nil {
		t.Errorf("expected nil for a missing token, got %+v", evt)
	}
}

func TestEmailVerificationTokenRepository_DeleteForUser(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewEmailVerificationTokenRepository(db)

	mock.ExpectExec(`DELETE FROM email_verification_tokens WHERE user_id = \? OR expires_at < \?`).
		WithArgs(uint64(5), repoNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteForUser(context.Background(), 5, repoNow); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestEmailVerificationTokenRepository_MarkUsed(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := repository.NewEmailVerificationTokenRepository(db)

	mock.ExpectExec(`UPDATE email_verification_tokens SET used = TRUE, used_at = \? WHERE id = \?`).
		WithArgs(repoNow, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkUsed(context.Background(), 9, repoNow); err != nil {
		t.Fatalf("mark used failed: %v", err)
	}
}
