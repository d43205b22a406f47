package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/ivankudzin/dochub/internal/repo/redis"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	ratesvc "github.com/ivankudzin/dochub/internal/services/rate"
)

type authTestEnv struct {
	handler *AuthHandler
	mailer  *captureMailer
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = redisClient.Close()
		mr.Close()
	})

	mailer := &captureMailer{}
	svc := authsvc.NewService(authsvc.Dependencies{
		JWT:           authsvc.NewJWTManager("test-secret", 15*time.Minute),
		Sessions:      redrepo.NewSessionRepo(redisClient),
		Users:         newMemUsers(),
		Verifications: &memVerifications{tokens: map[int64]string{}},
		Mailer:        mailer,
		Limiter:       ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), 3, 30),
	}, authsvc.Config{
		RefreshTTL:      30 * 24 * time.Hour,
		VerificationTTL: time.Hour,
		AppBaseURL:      "http://localhost:5173",
	})

	return &authTestEnv{handler: NewAuthHandler(svc, nil), mailer: mailer}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) {
	t.Helper()

	var envelope struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Message == "" {
		t.Fatalf("expected non-empty message in %s", rr.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Code
}

func TestRegisterReturnsCreatedUser(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := postJSON(t, env.handler.Register, "/api/v1/auth/register", map[string]any{
		"email":      "anna@example.com",
		"first_name": "Anna",
		"last_name":  "Ivanova",
		"role":       "manager",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var data struct {
		User struct {
			ID       int64  `json:"id"`
			RoleID   int    `json:"role_id"`
			Initials string `json:"initials"`
		} `json:"user"`
		Verified    bool   `json:"verified"`
		AccessToken string `json:"accessToken"`
	}
	decodeEnvelope(t, rr, &data)
	if data.User.ID == 0 || data.User.RoleID != 3 || data.User.Initials != "AI" {
		t.Fatalf("unexpected user payload: %+v", data.User)
	}
	if data.Verified || data.AccessToken != "" {
		t.Fatalf("registration must not issue tokens: %+v", data)
	}

	dup := postJSON(t, env.handler.Register, "/api/v1/auth/register", map[string]any{
		"email":      "ANNA@example.com",
		"first_name": "Anna",
		"last_name":  "Ivanova",
	})
	if dup.Code != http.StatusConflict {
		t.Fatalf("unexpected duplicate status: got %d want %d", dup.Code, http.StatusConflict)
	}
	if code := errorCode(t, dup); code != "USER_ALREADY_EXISTS" {
		t.Fatalf("unexpected error code: got %q", code)
	}
}

func TestRegisterRejectsBadPayloads(t *testing.T) {
	env := newAuthTestEnv(t)

	cases := []map[string]any{
		{"email": "bad..dots@example.com", "first_name": "A", "last_name": "B"},
		{"email": "ok@example.com", "first_name": "A", "last_name": "B", "unknown": true},
		{"email": "ok@example.com", "first_name": "A", "last_name": "B", "role": "janitor"},
		{"email": "ok@example.com", "first_name": "A", "last_name": "B", "role_id": 5},
	}
	for _, body := range cases {
		rr := postJSON(t, env.handler.Register, "/api/v1/auth/register", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status for %v: got %d want %d", body, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestConfirmThenLoginReturnsBothTokenSpellings(t *testing.T) {
	env := newAuthTestEnv(t)

	reg := postJSON(t, env.handler.Register, "/api/v1/auth/register", map[string]any{
		"email": "bob@example.com", "first_name": "Bob", "last_name": "Stone",
	})
	var regData struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	decodeEnvelope(t, reg, &regData)

	unverified := postJSON(t, env.handler.Login, "/api/v1/auth/login", map[string]any{
		"email": "bob@example.com", "password": "secret1",
	})
	if unverified.Code != http.StatusForbidden || errorCode(t, unverified) != "USER_NOT_VERIFIED" {
		t.Fatalf("expected USER_NOT_VERIFIED, got %d %s", unverified.Code, unverified.Body.String())
	}

	badToken := postJSON(t, env.handler.Confirm, "/api/v1/auth/confirm", map[string]any{
		"user_id": regData.User.ID, "token": "nope", "password": "secret1",
	})
	if badToken.Code != http.StatusBadRequest || errorCode(t, badToken) != "TOKEN_INVALID" {
		t.Fatalf("expected TOKEN_INVALID, got %d %s", badToken.Code, badToken.Body.String())
	}

	confirm := postJSON(t, env.handler.Confirm, "/api/v1/auth/confirm", map[string]any{
		"user_id": regData.User.ID, "token": env.mailer.lastToken(t), "password": "secret1",
	})
	if confirm.Code != http.StatusOK {
		t.Fatalf("unexpected confirm status: got %d want %d (%s)", confirm.Code, http.StatusOK, confirm.Body.String())
	}

	login := postJSON(t, env.handler.Login, "/api/v1/auth/login", map[string]any{
		"email": "bob@example.com", "password": "secret1",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("unexpected login status: got %d want %d", login.Code, http.StatusOK)
	}
	var data struct {
		AccessToken       string `json:"accessToken"`
		RefreshToken      string `json:"refreshToken"`
		AccessTokenSnake  string `json:"access_token"`
		RefreshTokenSnake string `json:"refresh_token"`
		Verified          bool   `json:"verified"`
		ExpiresInSec      int64  `json:"expires_in_sec"`
	}
	decodeEnvelope(t, login, &data)
	if data.AccessToken == "" || data.AccessToken != data.AccessTokenSnake {
		t.Fatalf("access token spellings differ: %+v", data)
	}
	if data.RefreshToken == "" || data.RefreshToken != data.RefreshTokenSnake {
		t.Fatalf("refresh token spellings differ: %+v", data)
	}
	if !data.Verified || data.ExpiresInSec <= 0 {
		t.Fatalf("unexpected login payload: %+v", data)
	}

	refresh := postJSON(t, env.handler.Refresh, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": data.RefreshToken,
	})
	if refresh.Code != http.StatusOK {
		t.Fatalf("unexpected refresh status: got %d want %d", refresh.Code, http.StatusOK)
	}
	replay := postJSON(t, env.handler.Refresh, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": data.RefreshToken,
	})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("rotated refresh token must be rejected: got %d", replay.Code)
	}
}

func TestLoginRateLimitedResponse(t *testing.T) {
	env := newAuthTestEnv(t)

	for i := 0; i < 3; i++ {
		rr := postJSON(t, env.handler.Login, "/api/v1/auth/login", map[string]any{
			"email": "ghost@example.com", "password": "wrong-pass",
		})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt #%d: unexpected status: got %d want %d", i+1, rr.Code, http.StatusUnauthorized)
		}
	}

	rr := postJSON(t, env.handler.Login, "/api/v1/auth/login", map[string]any{
		"email": "ghost@example.com", "password": "wrong-pass",
	})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOO_MANY_ATTEMPTS" || payload.RetryAfterSec <= 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestLogoutRequiresIdentity(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := httptest.NewRecorder()
	env.handler.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/v1/user/logout", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandlerWithoutService(t *testing.T) {
	h := NewAuthHandler(nil, nil)

	rr := postJSON(t, h.Login, "/api/v1/auth/login", map[string]any{"email": "a@b.co", "password": "x"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusInternalServerError)
	}
	if code := errorCode(t, rr); code != "AUTH_SERVICE_UNAVAILABLE" {
		t.Fatalf("unexpected code: %q", code)
	}
}
