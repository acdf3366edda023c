package repository

import (
	"context"
	"database/sql"

	"github.com/massivemarketmanager/ms-go-trading/app/entity"
)

type BalanceRepository struct {
	db dbtx
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) ListByUserID(ctx context.Context, userID uint64) ([]*entity.Balance, error) {
	query := `
		SELECT id, user_id, token_name, balance
		FROM balance WHERE user_id = ? ORDER BY token_name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*entity.Balance
	for rows.Next() {
		b := &entity.Balance{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.TokenName, &b.Amount); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *BalanceRepository) Upsert(ctx context.Context, balance *entity.Balance) error {
	query := `
		INSERT INTO balance (user_id, token_name, balance)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE balance = VALUES(balance)
	`
	_, err := r.db.ExecContext(ctx, query, balance.UserID, balance.TokenName, balance.Amount)
	return err
}

type StrategyRepository struct {
	db dbtx
}

func NewStrategyRepository(db *sql.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

func (r *StrategyRepository) WithTx(tx *sql.Tx) *StrategyRepository {
	return &StrategyRepository{db: tx}
}

func (r *StrategyRepository) Create(ctx context.Context, strategy *entity.Strategy) error {
	query := `
		INSERT INTO strategy (user_id, name, loss_limit, income_limit, potential_income_limit, recheck_period)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		strategy.UserID,
		strategy.Name,
		strategy.LossLimit,
		strategy.IncomeLimit,
		strategy.PotentialIncomeLimit,
		strategy.RecheckPeriod,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	strategy.ID = uint64(id)
	return nil
}

func (r *StrategyRepository) UpdateName(ctx context.Context, id uint64, name string) error {
	query := `UPDATE strategy SET name = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, name, id)
	return err
}

func (r *StrategyRepository) ListByUserID(ctx context.Context, userID uint64) ([]*entity.Strategy, error) {
	query := `
		SELECT id, user_id, name, loss_limit, income_limit, potential_income_limit, recheck_period
		FROM strategy WHERE user_id = ? ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []*entity.Strategy
	for rows.Next() {
		s := &entity.Strategy{}
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Name,
			&s.LossLimit,
			&s.IncomeLimit,
			&s.PotentialIncomeLimit,
			&s.RecheckPeriod,
		); err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, rows.Err()
}

func (r *StrategyRepository) FindByID(ctx context.Context, id uint64) (*entity.Strategy, error) {
	query := `
		SELECT id, user_id, name, loss_limit, income_limit, potential_income_limit, recheck_period
		FROM strategy WHERE id = ?
	`
	s := &entity.Strategy{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.LossLimit,
		&s.IncomeLimit,
		&s.PotentialIncomeLimit,
		&s.RecheckPeriod,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

type PositionRepository struct {
	db dbtx
}

func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, position *entity.Position) error {
	query := `
		INSERT INTO positions (strategy_id, amount_in, token_in, token_out, network, dex, pool_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		position.StrategyID,
		position.AmountIn,
		position.TokenIn,
		position.TokenOut,
		position.Network,
		position.Dex,
		position.PoolAddress,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	position.ID = uint64(id)
	return nil
}

func (r *PositionRepository) ListByStrategyID(ctx context.Context, strategyID uint64) ([]*entity.Position, error) {
	query := `
		SELECT id, strategy_id, amount_in, token_in, token_out, network, dex, pool_address
		FROM positions WHERE strategy_id = ? ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*entity.Position
	for rows.Next() {
		p := &entity.Position{}
		if err := rows.Scan(
			&p.ID,
			&p.StrategyID,
			&p.AmountIn,
			&p.TokenIn,
			&p.TokenOut,
			&p.Network,
			&p.Dex,
			&p.PoolAddress,
		); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

type TradeRepository struct {
	db dbtx
}

func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) Create(ctx context.Context, trade *entity.Trade) error {
	query := `
		INSERT INTO trade (user_id, position_id, status, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		trade.UserID,
		trade.PositionID,
		trade.Status,
		trade.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	trade.ID = uint64(id)
	return nil
}

func (r *TradeRepository) ListByUserID(ctx context.Context, userID uint64) ([]*entity.Trade, error) {
	query := `
		SELECT id, user_id, position_id, status, created_at, closed_at, profit_abs, profit_pct, holding_period_sec
		FROM trade WHERE user_id = ? ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*entity.Trade
	for rows.Next() {
		t := &entity.Trade{}
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.PositionID,
			&t.Status,
			&t.CreatedAt,
			&t.ClosedAt,
			&t.ProfitAbs,
			&t.ProfitPct,
			&t.HoldingPeriodSec,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
