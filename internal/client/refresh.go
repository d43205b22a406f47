package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	refreshPath    = "/api/v1/auth/refresh"
	authPathPrefix = "/api/v1/auth/"
	refreshTimeout = 15 * time.Second
)

// refreshTransport attaches the stored access token and, on a 401 from a
// non-auth endpoint, refreshes the pair once for all concurrent callers and
// replays the request a single time.
type refreshTransport struct {
	base       http.RoundTripper
	store      TokenStore
	refreshURL string
	group      singleflight.Group
	logger     *zap.Logger
}

func newRefreshTransport(base http.RoundTripper, store TokenStore, refreshURL string, logger *zap.Logger) *refreshTransport {
	return &refreshTransport{
		base:       base,
		store:      store,
		refreshURL: refreshURL,
		logger:     logger,
	}
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthPath(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	sent := t.accessToken()
	resp, err := t.base.RoundTrip(withBearer(req, sent))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}

	token, err := t.freshToken(req.Context(), sent)
	if err != nil {
		discard(resp)
		return nil, err
	}

	replay := withBearer(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			discard(resp)
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		replay.Body = body
	}
	discard(resp)

	return t.base.RoundTrip(replay)
}

// freshToken returns a token newer than sent. A store that already moved past
// sent is trusted without another refresh call.
func (t *refreshTransport) freshToken(ctx context.Context, sent string) (string, error) {
	if current := t.accessToken(); current != "" && current != sent {
		return current, nil
	}

	v, err, shared := t.group.Do("refresh", func() (any, error) {
		if current := t.accessToken(); current != "" && current != sent {
			return current, nil
		}
		return t.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		t.logger.Debug("joined in-flight token refresh")
	}
	return v.(string), nil
}

func (t *refreshTransport) refresh(ctx context.Context) (string, error) {
	tokens, err := t.store.Load()
	if err != nil {
		return "", t.fail(fmt.Errorf("%w: load tokens: %v", ErrRefreshFailed, err))
	}
	if tokens.RefreshToken == "" {
		return "", t.fail(fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshToken))
	}

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"refresh_token": tokens.RefreshToken})
	if err != nil {
		return "", t.fail(fmt.Errorf("%w: %v", ErrRefreshFailed, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", t.fail(fmt.Errorf("%w: %v", ErrRefreshFailed, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return "", t.fail(fmt.Errorf("%w: %v", ErrRefreshFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", t.fail(fmt.Errorf("%w: %w", ErrRefreshFailed, decodeAPIError(resp)))
	}

	next, err := decodeTokenPair(resp.Body)
	if err != nil {
		return "", t.fail(fmt.Errorf("%w: %v", ErrRefreshFailed, err))
	}
	if err := t.store.Save(next); err != nil {
		return "", t.fail(fmt.Errorf("%w: save tokens: %v", ErrRefreshFailed, err))
	}

	t.logger.Debug("access token refreshed")
	return next.AccessToken, nil
}

func (t *refreshTransport) fail(err error) error {
	if clearErr := t.store.Clear(); clearErr != nil {
		t.logger.Warn("clear tokens after failed refresh", zap.Error(clearErr))
	}
	t.logger.Info("token refresh failed, session cleared", zap.Error(err))
	return err
}

func (t *refreshTransport) accessToken() string {
	tokens, err := t.store.Load()
	if err != nil {
		t.logger.Warn("load tokens", zap.Error(err))
		return ""
	}
	return tokens.AccessToken
}

// decodeTokenPair reads a {message, data} envelope whose data holds the pair
// in camelCase or snake_case spelling.
func decodeTokenPair(r io.Reader) (Tokens, error) {
	var envelope struct {
		Data struct {
			AccessToken       string `json:"accessToken"`
			RefreshToken      string `json:"refreshToken"`
			AccessTokenSnake  string `json:"access_token"`
			RefreshTokenSnake string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return Tokens{}, fmt.Errorf("decode refresh response: %w", err)
	}

	tokens := Tokens{
		AccessToken:  firstNonEmpty(envelope.Data.AccessToken, envelope.Data.AccessTokenSnake),
		RefreshToken: firstNonEmpty(envelope.Data.RefreshToken, envelope.Data.RefreshTokenSnake),
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return Tokens{}, fmt.Errorf("refresh response without token pair")
	}
	return tokens, nil
}

func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, authPathPrefix)
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
