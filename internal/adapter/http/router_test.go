package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/http/handler"
	apimiddleware "github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/auth"
	"github.com/iho/splitsync/internal/usecase"
)

type routerSyncStub struct{}

func (s *routerSyncStub) RunPass(ctx context.Context, userID string) (*usecase.SyncResult, error) {
	return &usecase.SyncResult{Success: true, Status: domain.SyncStatusSuccess}, nil
}

type routerBatchStub struct{ calls int }

func (s *routerBatchStub) Run(ctx context.Context) (*usecase.BatchResult, error) {
	s.calls++
	return &usecase.BatchResult{}, nil
}

type routerLimitStub struct{}

func (s *routerLimitStub) CheckManual(ctx context.Context, userID string, tier domain.Tier) (*domain.RateLimitResult, error) {
	return &domain.RateLimitResult{Allowed: true}, nil
}

type routerHistoryStub struct{}

func (s *routerHistoryStub) List(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error) {
	return nil, nil
}

func (s *routerHistoryStub) Get(ctx context.Context, userID, historyID string) (*domain.SyncHistory, error) {
	return nil, domain.ErrHistoryNotFound
}

func newRouterConfig(overrides ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		SyncHandler: handler.NewSyncHandler(
			&routerSyncStub{}, &routerBatchStub{}, &routerLimitStub{}, &routerHistoryStub{},
		),
		HealthHandler:   handler.NewHealthHandler(nil, nil),
		JWTManager:      auth.NewJWTManager("test-secret", time.Hour),
		SchedulerSecret: "scheduler-secret",
		Logger:          zerolog.Nop(),
	}
	for _, o := range overrides {
		o(&cfg)
	}
	return cfg
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_SyncRequiresAuth(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestNewRouter_SyncWithValidToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	token, err := jwtManager.Generate("user-1", domain.TierFree)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_BatchRejectsUserTokens(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	token, _ := jwtManager.Generate("user-1", domain.TierPremium)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/batch", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a user token on the batch endpoint, got %d", rec.Code)
	}
}

func TestNewRouter_BatchAcceptsSchedulerSecret(t *testing.T) {
	batch := &routerBatchStub{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.SyncHandler = handler.NewSyncHandler(
			&routerSyncStub{}, batch, &routerLimitStub{}, &routerHistoryStub{},
		)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/batch", nil)
	req.Header.Set("X-Scheduler-Secret", "scheduler-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with the scheduler secret, got %d", rec.Code)
	}
	if batch.calls != 1 {
		t.Fatalf("expected one batch run, got %d", batch.calls)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IPRateLimiter = apimiddleware.NewIPRateLimiter(1, 1)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}
