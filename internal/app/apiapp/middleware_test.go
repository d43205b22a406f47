package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/config"
	"github.com/ivankudzin/dochub/internal/domain/enums"
	redrepo "github.com/ivankudzin/dochub/internal/repo/redis"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
)

func TestRequireRoleAllowsListedRole(t *testing.T) {
	mw := RequireRole(enums.RoleAdmin, enums.RoleHR)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 1,
		SID:    "sid-1",
		Role:   enums.RoleHR,
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole(enums.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/admin/users", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 2,
		SID:    "sid-2",
		Role:   enums.RoleManager,
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole(enums.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without identity")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	sessions := redrepo.NewSessionRepo(redisClient)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Sessions: sessions,
	}, authsvc.Config{RefreshTTL: 30 * 24 * time.Hour})

	if err := sessions.Create(context.Background(), authsvc.SessionRecord{
		SID:       "sid-live",
		UserID:    42,
		Role:      enums.RoleManager,
		ExpiresAt: time.Now().Add(time.Hour),
	}, "refresh-live"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	token, _, err := jwtManager.GenerateAccessToken(42, "sid-live", enums.RoleManager)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var seen authsvc.Identity
	handler := AuthMiddleware(authService, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s: unexpected status: got %d want %d", tc.name, rr.Code, tc.status)
		}
	}
	if seen.UserID != 42 || seen.SID != "sid-live" || seen.Role != enums.RoleManager {
		t.Fatalf("unexpected identity: %+v", seen)
	}

	if err := sessions.DeleteSession(context.Background(), "sid-live"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := chi.NewRouter()
	ApplyMiddlewares(r, config.HTTPConfig{AllowedOrigins: []string{"http://localhost:5173"}}, zap.NewNop())
	r.Get("/api/v1/documents", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin: %q", got)
	}
}
