package controller

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/massivemarketmanager/ms-go-trading/app/dto/http"
	"github.com/massivemarketmanager/ms-go-trading/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) SignUp(ctx echo.Context) error {
	var req httpdto.SignUpRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind sign-up request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email and password are required"})
	}

	logrus.WithField("email", req.Email).Info("Sign-up request received")
	result, err := c.authService.Register(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Sign-up failed: user already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "user already exists"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Sign-up failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.SignUpResponse{
		ID:     result.User.ID,
		Email:  result.User.Email,
		Role:   result.User.Role,
		Status: string(result.User.Status),
	})
}

func (c *AuthController) SignIn(ctx echo.Context) error {
	var req httpdto.SignInRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind sign-in request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	logrus.WithField("email", req.Email).Info("Sign-in request received")
	result, err := c.authService.SignIn(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			logrus.WithField("email", req.Email).Warn("Sign-in failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, service.ErrAccountBlocked):
			logrus.WithField("email", req.Email).Warn("Sign-in failed: account blocked")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "account is blocked"})
		case errors.Is(err, service.ErrAccountDeleted):
			logrus.WithField("email", req.Email).Warn("Sign-in failed: account deleted")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "account is deleted"})
		case errors.Is(err, service.ErrAccountNotVerified):
			logrus.WithField("email", req.Email).Warn("Sign-in failed: account not verified")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "account email is not verified"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Sign-in failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Sign-in successful")
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, httpdto.SignInResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
		ExpiresIn:    result.ExpiresIn,
		User: httpdto.UserSummary{
			ID:     result.User.ID,
			Email:  result.User.Email,
			Role:   result.User.Role,
			Status: result.User.Status,
		},
	})
}

func (c *AuthController) Verify(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		var req httpdto.VerifyRequest
		if err := ctx.Bind(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "token is required"})
	}

	logrus.Info("Verify email request received")
	if err := c.authService.VerifyEmail(ctx.Request().Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Verify email failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid token"})
		}
		if errors.Is(err, service.ErrTokenExpired) {
			logrus.Warn("Verify email failed: token expired")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "token has expired"})
		}
		logrus.WithError(err).Error("Verify email failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Email verified")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email verified successfully"})
}

func (c *AuthController) ResendVerification(ctx echo.Context) error {
	var req httpdto.ResendVerificationRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind resend verification request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Email) == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email is required"})
	}

	logrus.Info("Resend verification request received")
	if err := c.authService.ResendVerification(ctx.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).Error("Resend verification failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	// Same response whether or not the email exists.
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "if the account is pending verification, a new link has been sent"})
}
