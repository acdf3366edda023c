package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/massivemarketmanager/ms-go-trading/app/middleware"
	"github.com/massivemarketmanager/ms-go-trading/app/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type stubValidator struct {
	claims *service.Claims
	err    error
}

func (v *stubValidator) ValidateAccessToken(tokenString string) (*service.Claims, error) {
	return v.claims, v.err
}

func invoke(t *testing.T, validator *stubValidator, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/balances", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := middleware.NewAuthMiddleware(validator).RequireAuth(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c, reached
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	rec, _, reached := invoke(t, &stubValidator{}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Error("handler must not run without a token")
	}
}

func TestRequireAuth_BadHeaderFormat(t *testing.T) {
	for _, header := range []string{"token-only", "Basic dXNlcg==", "Bearer a b"} {
		rec, _, reached := invoke(t, &stubValidator{}, header)
		if rec.Code != http.StatusUnauthorized || reached {
			t.Errorf("header %q: expected 401 without reaching the handler, got %d", header, rec.Code)
		}
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	rec, _, reached := invoke(t, &stubValidator{err: service.ErrInvalidToken}, "Bearer bad-token")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reached {
		t.Error("handler must not run with an invalid token")
	}
}

func TestRequireAuth_MalformedSubject(t *testing.T) {
	claims := &service.Claims{
		Email:            "user@test.dev",
		Role:             service.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-number"},
	}
	rec, _, reached := invoke(t, &stubValidator{claims: claims}, "Bearer token")

	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("expected 401 for a malformed subject, got %d", rec.Code)
	}
}

func TestRequireAuth_SetsIdentityOnContext(t *testing.T) {
	claims := &service.Claims{
		Email:            "user@test.dev",
		Role:             service.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	}
	rec, c, reached := invoke(t, &stubValidator{claims: claims}, "Bearer good-token")

	if rec.Code != http.StatusOK || !reached {
		t.Fatalf("expected the handler to run, got %d", rec.Code)
	}
	if got, ok := c.Get("user_id").(uint64); !ok || got != 42 {
		t.Errorf("expected user_id 42 on the context, got %v", c.Get("user_id"))
	}
	if c.Get("user_email") != "user@test.dev" || c.Get("user_role") != service.RoleUser {
		t.Errorf("expected identity claims on the context, got email=%v role=%v",
			c.Get("user_email"), c.Get("user_role"))
	}
}
