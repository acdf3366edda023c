package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
	"github.com/massivemarketmanager/ms-go-trading/config"

	"github.com/google/uuid"
)

// VerificationService issues and redeems the single-use email
// verification tokens that move an account from PENDING to ACTIVE.
type VerificationService struct {
	db        *sql.DB
	tokenRepo *repository.EmailVerificationTokenRepository
	userRepo  *repository.UserRepository
	cfg       *config.Config
	now       func() time.Time
}

type VerificationServiceOption func(*VerificationService)

func NewVerificationService(
	db *sql.DB,
	tokenRepo *repository.EmailVerificationTokenRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
	opts ...VerificationServiceOption,
) *VerificationService {
	svc := &VerificationService{
		db:        db,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithVerificationClock(now func() time.Time) VerificationServiceOption {
	return func(s *VerificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// Issue replaces whatever token the user had with a fresh one. The
// delete and insert share one transaction so a concurrent duplicate
// request cannot leave two redeemable tokens behind.
func (s *VerificationService) Issue(ctx context.Context, user *entity.User) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	token, err := s.IssueTx(ctx, tx, user)
	if err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return token, nil
}

// IssueTx issues inside a caller-owned transaction; registration uses
// it so user creation and token issuance commit together.
func (s *VerificationService) IssueTx(ctx context.Context, tx *sql.Tx, user *entity.User) (string, error) {
	now := s.now()
	txRepo := s.tokenRepo.WithTx(tx)

	if err := txRepo.DeleteForUser(ctx, user.ID, now); err != nil {
		return "", err
	}

	token := &entity.EmailVerificationToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.VerificationTokenTTL),
		CreatedAt: now,
	}
	if err := txRepo.Create(ctx, token); err != nil {
		return "", err
	}
	return token.Token, nil
}

// Redeem consumes a token at most once: marking it used and activating
// the owner happen in the same transaction, so neither is ever
// observable without the other. Used and expired tokens fail the same
// way on purpose.
func (s *VerificationService) Redeem(ctx context.Context, token string) (*entity.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txTokenRepo := s.tokenRepo.WithTx(tx)
	evt, err := txTokenRepo.FindByTokenForUpdate(ctx, token)
	if err != nil {
		return nil, err
	}
	if evt == nil {
		return nil, ErrInvalidToken
	}

	now := s.now()
	if evt.Used || !now.Before(evt.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	txUserRepo := s.userRepo.WithTx(tx)
	user, err := txUserRepo.FindByID(ctx, evt.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	if err = txTokenRepo.MarkUsed(ctx, evt.ID, now); err != nil {
		return nil, err
	}

	user.Status = entity.AccountStatusActive
	user.UpdatedAt = now
	if err = txUserRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}
