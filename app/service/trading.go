package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
)

var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrInvalidPosition  = errors.New("invalid position")
)

var poolAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TradingService is plain persistence glue for the trading-domain
// records; the authenticated identity scopes every read and write.
type TradingService struct {
	balanceRepo  *repository.BalanceRepository
	strategyRepo *repository.StrategyRepository
	positionRepo *repository.PositionRepository
	tradeRepo    *repository.TradeRepository
	now          func() time.Time
}

type TradingServiceOption func(*TradingService)

func NewTradingService(
	balanceRepo *repository.BalanceRepository,
	strategyRepo *repository.StrategyRepository,
	positionRepo *repository.PositionRepository,
	tradeRepo *repository.TradeRepository,
	opts ...TradingServiceOption,
) *TradingService {
	svc := &TradingService{
		balanceRepo:  balanceRepo,
		strategyRepo: strategyRepo,
		positionRepo: positionRepo,
		tradeRepo:    tradeRepo,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithTradingClock(now func() time.Time) TradingServiceOption {
	return func(s *TradingService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *TradingService) ListBalances(ctx context.Context, userID uint64) ([]*entity.Balance, error) {
	return s.balanceRepo.ListByUserID(ctx, userID)
}

// CreateStrategy applies the platform defaults explicitly at creation
// time. A blank name becomes strategy_<id> once the id is known.
func (s *TradingService) CreateStrategy(ctx context.Context, userID uint64, strategy *entity.Strategy) error {
	strategy.UserID = userID
	strategy.Name = strings.TrimSpace(strategy.Name)

	if strategy.LossLimit == 0 {
		strategy.LossLimit = 0.1
	}
	if strategy.IncomeLimit == 0 {
		strategy.IncomeLimit = 0.02
	}
	if strategy.PotentialIncomeLimit == 0 {
		strategy.PotentialIncomeLimit = 0.004
	}
	if strategy.RecheckPeriod == 0 {
		strategy.RecheckPeriod = 6
	}

	autoName := strategy.Name == ""
	if autoName {
		strategy.Name = "strategy"
	}

	if err := s.strategyRepo.Create(ctx, strategy); err != nil {
		return err
	}

	if autoName {
		strategy.Name = fmt.Sprintf("strategy_%d", strategy.ID)
		return s.strategyRepo.UpdateName(ctx, strategy.ID, strategy.Name)
	}
	return nil
}

func (s *TradingService) ListStrategies(ctx context.Context, userID uint64) ([]*entity.Strategy, error) {
	return s.strategyRepo.ListByUserID(ctx, userID)
}

// CreatePosition normalizes token symbols and the pool address the way
// the execution layer expects them stored.
func (s *TradingService) CreatePosition(ctx context.Context, userID uint64, position *entity.Position) error {
	strategy, err := s.strategyRepo.FindByID(ctx, position.StrategyID)
	if err != nil {
		return err
	}
	if strategy == nil || strategy.UserID != userID {
		return ErrStrategyNotFound
	}

	position.TokenIn = strings.ToUpper(strings.TrimSpace(position.TokenIn))
	position.TokenOut = strings.ToUpper(strings.TrimSpace(position.TokenOut))
	position.PoolAddress = strings.ToLower(strings.TrimSpace(position.PoolAddress))

	if position.TokenIn == "" || position.TokenOut == "" {
		return ErrInvalidPosition
	}
	if !poolAddressPattern.MatchString(position.PoolAddress) {
		return ErrInvalidPosition
	}

	return s.positionRepo.Create(ctx, position)
}

func (s *TradingService) ListPositions(ctx context.Context, userID, strategyID uint64) ([]*entity.Position, error) {
	strategy, err := s.strategyRepo.FindByID(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if strategy == nil || strategy.UserID != userID {
		return nil, ErrStrategyNotFound
	}
	return s.positionRepo.ListByStrategyID(ctx, strategyID)
}

func (s *TradingService) RecordTrade(ctx context.Context, userID uint64, positionID uint64) (*entity.Trade, error) {
	trade := &entity.Trade{
		UserID:     userID,
		PositionID: positionID,
		Status:     entity.TradeStatusOpen,
		CreatedAt:  s.now(),
	}
	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

func (s *TradingService) ListTrades(ctx context.Context, userID uint64) ([]*entity.Trade, error) {
	return s.tradeRepo.ListByUserID(ctx, userID)
}
