package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/dto"
	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
	"github.com/massivemarketmanager/ms-go-trading/config"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrAccountDeleted     = errors.New("account is deleted")
	ErrAccountNotVerified = errors.New("account email is not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

const (
	RoleUser = "ROLE_USER"

	mysqlDuplicateEntry = 1062
)

// Notifier delivers the verification link. Delivery failures are
// non-fatal to the issuing flow; the resend endpoint is the recovery
// path.
type Notifier interface {
	SendVerificationLink(email, token string) error
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*dto.RegisterResult, error)
	SignIn(ctx context.Context, email, password string) (*dto.SignInResult, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type AsyncRunner func(task func())

type AuthServiceOption func(*authService)

type authService struct {
	db           *sql.DB
	userRepo     *repository.UserRepository
	tokens       *TokenService
	verification *VerificationService
	hasher       *PasswordHasher
	notifier     Notifier
	cfg          *config.Config
	now          func() time.Time
	asyncRunner  AsyncRunner
}

func NewAuthService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	tokens *TokenService,
	verification *VerificationService,
	hasher *PasswordHasher,
	notifier Notifier,
	cfg *config.Config,
	opts ...AuthServiceOption,
) AuthService {
	svc := &authService{
		db:           db,
		userRepo:     userRepo,
		tokens:       tokens,
		verification: verification,
		hasher:       hasher,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *authService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithAsyncRunner(runner AsyncRunner) AuthServiceOption {
	return func(s *authService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*dto.RegisterResult, error) {
	email = NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Email:        email,
		PasswordHash: passwordHash,
		Status:       entity.AccountStatusPending,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
		// The unique key on email is the last word under concurrent
		// registration; the existence check above only races.
		return nil, remapDuplicateEmail(err)
	}

	token, err := s.verification.IssueTx(ctx, tx, user)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, remapDuplicateEmail(err)
	}

	s.deliverVerification(user.Email, token)

	return &dto.RegisterResult{
		User:              user,
		VerificationToken: token,
	}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*dto.SignInResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn the same bcrypt cost as a real check so response
		// latency does not reveal whether the email is registered.
		s.hasher.Verify(password, DummyHash)
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case entity.AccountStatusBlocked:
		return nil, ErrAccountBlocked
	case entity.AccountStatusDeleted:
		return nil, ErrAccountDeleted
	case entity.AccountStatusPending:
		return nil, ErrAccountNotVerified
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradePasswordHash(ctx, user, password)
	}

	s.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := s.userRepo.UpdateLatestLogin(updateCtx, user.ID, s.now()); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update latest_login")
		}
	})

	accessToken, expiresAt, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := s.tokens.RotateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	expiresIn := int64(expiresAt.Sub(s.now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	return &dto.SignInResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		User:         dto.NewUserSummary(user),
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	_, err := s.verification.Redeem(ctx, token)
	return err
}

// ResendVerification answers uniformly whether or not the email maps
// to a pending account, so the endpoint cannot be used to enumerate
// registered addresses.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.Status != entity.AccountStatusPending {
		logrus.WithField("email", email).Debug("resend requested for non-pending account")
		return nil
	}

	token, err := s.verification.Issue(ctx, user)
	if err != nil {
		return err
	}

	s.deliverVerification(user.Email, token)
	return nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// upgradePasswordHash silently re-hashes a password stored under an
// older cost. Failures are logged and swallowed; the sign-in already
// succeeded.
func (s *authService) upgradePasswordHash(ctx context.Context, user *entity.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to rehash password")
		return
	}

	user.PasswordHash = newHash
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to persist rehashed password")
	}
}

// deliverVerification is fire-and-forget from the persistence
// transaction's perspective: the user and token are already committed,
// so a failed delivery is recoverable through resend.
func (s *authService) deliverVerification(email, token string) {
	s.asyncRunner(func() {
		if err := s.notifier.SendVerificationLink(email, token); err != nil {
			logrus.WithError(err).WithField("email", email).Error("failed to send verification email")
		}
	})
}

func remapDuplicateEmail(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrUserExists
	}
	return err
}
