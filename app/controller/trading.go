package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/massivemarketmanager/ms-go-trading/app/dto/http"
	"github.com/massivemarketmanager/ms-go-trading/app/entity"
	"github.com/massivemarketmanager/ms-go-trading/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type TradingController struct {
	tradingService *service.TradingService
}

func NewTradingController(tradingService *service.TradingService) *TradingController {
	return &TradingController{tradingService: tradingService}
}

func authenticatedUserID(ctx echo.Context) (uint64, bool) {
	userID, ok := ctx.Get("user_id").(uint64)
	return userID, ok
}

func (c *TradingController) ListBalances(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	balances, err := c.tradingService.ListBalances(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List balances failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if balances == nil {
		balances = []*entity.Balance{}
	}
	return ctx.JSON(http.StatusOK, balances)
}

func (c *TradingController) ListStrategies(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	strategies, err := c.tradingService.ListStrategies(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List strategies failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if strategies == nil {
		strategies = []*entity.Strategy{}
	}
	return ctx.JSON(http.StatusOK, strategies)
}

func (c *TradingController) CreateStrategy(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	var req httpdto.CreateStrategyRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	strategy := &entity.Strategy{
		Name:                 req.Name,
		LossLimit:            req.LossLimit,
		IncomeLimit:          req.IncomeLimit,
		PotentialIncomeLimit: req.PotentialIncomeLimit,
		RecheckPeriod:        req.RecheckPeriod,
	}
	if err := c.tradingService.CreateStrategy(ctx.Request().Context(), userID, strategy); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Create strategy failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"strategy_id": strategy.ID,
	}).Info("Strategy created")
	return ctx.JSON(http.StatusCreated, strategy)
}

func (c *TradingController) ListPositions(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	var strategyID uint64
	if err := echo.PathParamsBinder(ctx).Uint64("id", &strategyID).BindError(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid strategy id"})
	}

	positions, err := c.tradingService.ListPositions(ctx.Request().Context(), userID, strategyID)
	if err != nil {
		if errors.Is(err, service.ErrStrategyNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "strategy not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("List positions failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if positions == nil {
		positions = []*entity.Position{}
	}
	return ctx.JSON(http.StatusOK, positions)
}

func (c *TradingController) CreatePosition(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	var req httpdto.CreatePositionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	position := &entity.Position{
		StrategyID:  req.StrategyID,
		AmountIn:    req.AmountIn,
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		Network:     req.Network,
		Dex:         req.Dex,
		PoolAddress: req.PoolAddress,
	}
	if err := c.tradingService.CreatePosition(ctx.Request().Context(), userID, position); err != nil {
		if errors.Is(err, service.ErrStrategyNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "strategy not found"})
		}
		if errors.Is(err, service.ErrInvalidPosition) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid position"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Create position failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, position)
}

func (c *TradingController) ListTrades(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	trades, err := c.tradingService.ListTrades(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List trades failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	if trades == nil {
		trades = []*entity.Trade{}
	}
	return ctx.JSON(http.StatusOK, trades)
}

func (c *TradingController) RecordTrade(ctx echo.Context) error {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	var req httpdto.RecordTradeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.PositionID == 0 {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "position_id is required"})
	}

	trade, err := c.tradingService.RecordTrade(ctx.Request().Context(), userID, req.PositionID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Record trade failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, trade)
}
