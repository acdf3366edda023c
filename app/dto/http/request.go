package http

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type CreateStrategyRequest struct {
	Name                 string  `json:"name"`
	LossLimit            float64 `json:"loss_limit"`
	IncomeLimit          float64 `json:"income_limit"`
	PotentialIncomeLimit float64 `json:"potential_income_limit"`
	RecheckPeriod        int     `json:"recheck_period"`
}

type CreatePositionRequest struct {
	StrategyID  uint64 `json:"strategy_id"`
	AmountIn    string `json:"amount_in"`
	TokenIn     string `json:"token_in"`
	TokenOut    string `json:"token_out"`
	Network     string `json:"network"`
	Dex         string `json:"dex"`
	PoolAddress string `json:"pool_address"`
}

type RecordTradeRequest struct {
	PositionID uint64 `json:"position_id"`
}
