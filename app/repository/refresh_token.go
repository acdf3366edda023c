package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
)

type RefreshTokenRepository struct {
	db dbtx
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) WithTx(tx *sql.Tx) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, revoked)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.Revoked,
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

func (r *RefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint64) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = ? AND revoked = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// FindActiveByUserID returns the user's non-revoked, non-expired rows.
// Hashes are salted, so a plaintext can only be matched by rehashing
// against each candidate, never by equality lookup.
func (r *RefreshTokenRepository) FindActiveByUserID(ctx context.Context, userID uint64, now time.Time) ([]*entity.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked
		FROM refresh_tokens WHERE user_id = ? AND revoked = FALSE AND expires_at > ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*entity.RefreshToken
	for rows.Next() {
		token := &entity.RefreshToken{}
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.TokenHash,
			&token.ExpiresAt,
			&token.CreatedAt,
			&token.Revoked,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`
	_, err := r.db.ExecContext(ctx, query, now)
	return err
}
