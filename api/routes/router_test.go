package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/buttery-backend/pkg/auth"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubSettings struct{}

func (stubSettings) Status(context.Context) (*models.Settings, error) {
	return &models.Settings{ButteryOpen: true}, nil
}
func (stubSettings) ToggleGrill(context.Context) (*models.Settings, error)   { return &models.Settings{}, nil }
func (stubSettings) ToggleButtery(context.Context) (*models.Settings, error) { return &models.Settings{}, nil }
func (stubSettings) SetAnnouncement(context.Context, string) (*models.Settings, error) {
	return &models.Settings{}, nil
}

type stubOrders struct {
	orders.Service
}

func (stubOrders) Feed(context.Context, int64) (*orders.FeedResult, error) {
	return &orders.FeedResult{Orders: []orders.OrderDTO{}}, nil
}

// Cart mutations never reach the service while the guard rejects.
type stubCart struct {
	cart.Service
}

type lockedGuard struct{}

func (lockedGuard) Check(context.Context, string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "Your cart is locked while checkout is in progress.")
}

func testConfig(env string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: env},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "buttery", ExpirationMinutes: 10},
	}
}

func newTestRouter(env string) http.Handler {
	return NewRouter(Deps{
		Config:    testConfig(env),
		Logger:    logger.Nop(),
		Sessions:  stubSessionManager{},
		Gatherer:  prometheus.NewRegistry(),
		Settings:  stubSettings{},
		Orders:    stubOrders{},
		Cart:      &stubCart{},
		LockGuard: lockedGuard{},
	})
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig(config.AppEnvDev).JWT, time.Now(), pkgAuth.AccessTokenPayload{NetID: "abc123", Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func serve(router http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(config.AppEnvDev)

	for _, path := range []string{"/health/live", "/health/ready", "/status", "/metrics"} {
		if rec := serve(router, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}
	if rec := serve(router, http.MethodGet, "/payment_success", ""); rec.Code != http.StatusSeeOther {
		t.Fatalf("payment_success: expected 303 got %d", rec.Code)
	}
}

func TestUserRoutesRequireToken(t *testing.T) {
	router := newTestRouter(config.AppEnvDev)

	if rec := serve(router, http.MethodGet, "/cart", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPost, "/stripe_checkout", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestStaffRoutesRequireStaffRole(t *testing.T) {
	router := newTestRouter(config.AppEnvDev)

	if rec := serve(router, http.MethodGet, "/staff/orders_json", bearer(t, enums.UserRoleConsumer)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	rec := serve(router, http.MethodGet, "/staff/orders_json", bearer(t, enums.UserRoleStaff))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = serve(router, http.MethodPost, "/staff/toggle_grill", bearer(t, enums.UserRoleStaff))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCartMutationsPassLockGuard(t *testing.T) {
	router := newTestRouter(config.AppEnvDev)

	for _, path := range []string{"/add_to_cart", "/remove_from_cart", "/clear_cart", "/cart/specifications"} {
		rec := serve(router, http.MethodPost, path, bearer(t, enums.UserRoleConsumer))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422 got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}
}

func TestDevLoginOnlyOutsideProd(t *testing.T) {
	if rec := serve(newTestRouter(config.AppEnvProd), http.MethodPost, "/auth/dev-login", ""); rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected dev login hidden in prod, got %d", rec.Code)
	}
	// Mounted but unwired in dev, so the nil service answers.
	if rec := serve(newTestRouter(config.AppEnvDev), http.MethodPost, "/auth/dev-login", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected dev login mounted in dev, got %d", rec.Code)
	}
}
