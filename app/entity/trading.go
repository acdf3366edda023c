package entity

import (
	"database/sql"
	"time"
)

// Balance of a single token held by a user. Amounts travel as decimal
// strings so the DECIMAL columns round-trip without float loss.
type Balance struct {
	ID        uint64
	UserID    uint64
	TokenName string
	Amount    string
}

type Strategy struct {
	ID                   uint64
	UserID               uint64
	Name                 string
	LossLimit            float64
	IncomeLimit          float64
	PotentialIncomeLimit float64
	RecheckPeriod        int
}

type Position struct {
	ID          uint64
	StrategyID  uint64
	AmountIn    string
	TokenIn     string
	TokenOut    string
	Network     string
	Dex         string
	PoolAddress string
}

type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

type Trade struct {
	ID               uint64
	UserID           uint64
	PositionID       uint64
	Status           TradeStatus
	CreatedAt        time.Time
	ClosedAt         sql.NullTime
	ProfitAbs        sql.NullString
	ProfitPct        sql.NullString
	HoldingPeriodSec sql.NullInt64
}
