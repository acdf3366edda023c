package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
)

type EmailVerificationTokenRepository struct {
	db dbtx
}

func NewEmailVerificationTokenRepository(db *sql.DB) *EmailVerificationTokenRepository {
	return &EmailVerificationTokenRepository{db: db}
}

func (r *EmailVerificationTokenRepository) WithTx(tx *sql.Tx) *EmailVerificationTokenRepository {
	return &EmailVerificationTokenRepository{db: tx}
}

func (r *EmailVerificationTokenRepository) Create(ctx context.Context, token *entity.EmailVerificationToken) error {
	query := `
		INSERT INTO email_verification_tokens (token, user_id, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

func (r *EmailVerificationTokenRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.EmailVerificationToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, used, used_at, created_at
		FROM email_verification_tokens WHERE token = ? FOR UPDATE
	`
	evt := &entity.EmailVerificationToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&evt.ID,
		&evt.Token,
		&evt.UserID,
		&evt.ExpiresAt,
		&evt.Used,
		&evt.UsedAt,
		&evt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return evt, nil
}

// DeleteForUser clears the user's outstanding tokens together with any
// expired rows. Issuance runs it first, so at most one unused,
// unexpired token exists per user and no sweep job is needed.
func (r *EmailVerificationTokenRepository) DeleteForUser(ctx context.Context, userID uint64, now time.Time) error {
	query := `DELETE FROM email_verification_tokens WHERE user_id = ? OR expires_at < ?`
	_, err := r.db.ExecContext(ctx, query, userID, now)
	return err
}

func (r *EmailVerificationTokenRepository) MarkUsed(ctx context.Context, id uint64, usedAt time.Time) error {
	query := `UPDATE email_verification_tokens SET used = TRUE, used_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, usedAt, id)
	return err
}
