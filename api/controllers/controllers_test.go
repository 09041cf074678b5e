package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/buttery-backend/api/middleware"
	"github.com/angelmondragon/buttery-backend/internal/auth"
	"github.com/angelmondragon/buttery-backend/internal/checkout"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

type stubAuthService struct {
	logins    []auth.LoginRequest
	loggedOut []string
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.logins = append(s.logins, req)
	return &auth.LoginResponse{AccessToken: "token", User: &auth.UserDTO{NetID: req.NetID, Role: enums.UserRoleConsumer}}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return nil
}

type stubCheckoutService struct {
	result *checkout.Result
	err    error
	netIDs []string
}

func (s *stubCheckoutService) Start(_ context.Context, netID string) (*checkout.Result, error) {
	s.netIDs = append(s.netIDs, netID)
	return s.result, s.err
}

type stubSettings struct{}

func (stubSettings) Status(context.Context) (*models.Settings, error) {
	return &models.Settings{ButteryOpen: true, Announcement: "Grill closed tonight"}, nil
}
func (stubSettings) ToggleGrill(context.Context) (*models.Settings, error)   { return nil, nil }
func (stubSettings) ToggleButtery(context.Context) (*models.Settings, error) { return nil, nil }
func (stubSettings) SetAnnouncement(context.Context, string) (*models.Settings, error) {
	return nil, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func withIdentity(req *http.Request, netID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), netID, enums.UserRoleConsumer, "jti-1"))
}

func TestDevLoginValidatesBody(t *testing.T) {
	svc := &stubAuthService{}

	rec := httptest.NewRecorder()
	DevLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	DevLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"netid":"abc 123;"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a netid")

	rec = httptest.NewRecorder()
	DevLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"netid":"abc123","name":"Ada"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.logins, 1)
	assert.Equal(t, "abc123", svc.logins[0].NetID)
	assert.Contains(t, rec.Body.String(), `"access_token":"token"`)
}

func TestLogoutRevokesCurrentSession(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "abc123")

	Logout(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jti-1"}, svc.loggedOut)
}

func TestStripeCheckoutRedirects(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.Result{URL: "https://checkout.stripe.com/c/pay/cs_1", SessionID: "cs_1"}}
	rec := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/stripe_checkout", nil), "abc123")

	StripeCheckout(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", rec.Header().Get("Location"))
	assert.Equal(t, []string{"abc123"}, svc.netIDs)
}

func TestStripeCheckoutJSON(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.Result{URL: "https://checkout.stripe.com/c/pay/cs_1", SessionID: "cs_1", Reused: true}}
	rec := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/stripe_checkout", nil), "abc123")
	req.Header.Set("Accept", "application/json")

	StripeCheckout(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, checkoutResponse{URL: "https://checkout.stripe.com/c/pay/cs_1", SessionID: "cs_1", Reused: true}, envelope.Data)
}

func TestStripeCheckoutErrors(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "Your cart is empty.")}

	rec := httptest.NewRecorder()
	StripeCheckout(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stripe_checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.netIDs)

	rec = httptest.NewRecorder()
	StripeCheckout(svc, nil).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/stripe_checkout", nil), "abc123"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your cart is empty.")
}

func TestPaymentReturnsRedirectHome(t *testing.T) {
	cfg := config.CheckoutConfig{LandingURL: "/"}
	for _, h := range []http.HandlerFunc{PaymentSuccess(cfg), PaymentFailure(cfg)} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment_success", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}
}

func TestStatusReportsSettings(t *testing.T) {
	rec := httptest.NewRecorder()
	Status(stubSettings{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"buttery_open":true,"grill_open":false,"announcement":"Grill closed tonight"}}`, rec.Body.String())
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Buttery-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{App: config.AppConfig{Env: "prod"}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prod", rec.Header().Get("X-Buttery-Env"))
}
