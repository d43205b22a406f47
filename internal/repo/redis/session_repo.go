package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
)

const (
	sessionPrefix        = "dochub:sessions:"
	refreshPrefix        = "dochub:refresh:"
	sessionRefreshPrefix = "dochub:session_refresh:"
	userSessionsPrefix   = "dochub:user_sessions:"

	maxRotateAttempts = 3
)

type hashReader interface {
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
}

// SessionRepo keeps sessions and their refresh tokens in Redis hashes:
//
//	sessions:<sid>         user_id, role, expires_at
//	refresh:<token>        user_id, sid, role, expires_at
//	session_refresh:<sid>  current refresh token of the session
//	user_sessions:<uid>    set of sids
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 {
		return authsvc.ErrInvalidInput
	}

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		writeSession(ctx, pipe, session, refreshToken)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create redis session: %w", err)
	}

	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	session.SID = sid
	return session, nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	return getByRefresh(ctx, r.client, refreshToken)
}

// RotateRefresh swaps the refresh token of a session. The old token is
// watched, so two concurrent rotations of the same token cannot both succeed:
// the loser observes ErrRefreshNotFound.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	rotate := func(tx *goredis.Tx) error {
		session, err := getByRefresh(ctx, tx, oldRefreshToken)
		if err != nil {
			return err
		}
		if sid != "" && sid != session.SID {
			return authsvc.ErrRefreshNotFound
		}
		session.ExpiresAt = expiresAt

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, refreshKey(oldRefreshToken))
			writeSession(ctx, pipe, session, newRefreshToken)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxRotateAttempts; attempt++ {
		err := r.client.Watch(ctx, rotate, refreshKey(oldRefreshToken))
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			// Someone else touched the token; re-read and let the loser fail.
			continue
		}
		if errors.Is(err, authsvc.ErrRefreshNotFound) || errors.Is(err, authsvc.ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	return authsvc.ErrRefreshNotFound
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	userIDRaw, err := r.client.HGet(ctx, sessionKey(sid), "user_id").Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session for delete: %w", err)
	}
	refreshToken, err := r.client.Get(ctx, sessionRefreshKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh pointer: %w", err)
	}

	userID, _ := strconv.ParseInt(userIDRaw, 10, 64)

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sid), sessionRefreshKey(sid))
		if refreshToken != "" {
			pipe.Del(ctx, refreshKey(refreshToken))
		}
		if userID > 0 {
			pipe.SRem(ctx, userSessionsKey(userID), sid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}

	if err := r.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions key: %w", err)
	}

	return nil
}

func (r *SessionRepo) CountForUser(ctx context.Context, userID int64) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := r.client.SCard(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count user sessions: %w", err)
	}
	return n, nil
}

func writeSession(ctx context.Context, pipe goredis.Pipeliner, session authsvc.SessionRecord, refreshToken string) {
	ttl := ttlFor(session.ExpiresAt)

	pipe.HSet(ctx, sessionKey(session.SID), map[string]interface{}{
		"user_id":    session.UserID,
		"role":       int(session.Role),
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, sessionKey(session.SID), ttl)
	pipe.HSet(ctx, refreshKey(refreshToken), map[string]interface{}{
		"user_id":    session.UserID,
		"sid":        session.SID,
		"role":       int(session.Role),
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, refreshKey(refreshToken), ttl)
	pipe.Set(ctx, sessionRefreshKey(session.SID), refreshToken, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
}

func getByRefresh(ctx context.Context, c hashReader, refreshToken string) (authsvc.SessionRecord, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}

	values, err := c.HGetAll(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh hash: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}

	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}

	sid := strings.TrimSpace(values["sid"])
	if sid == "" {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	session.SID = sid

	return session, nil
}

func parseSessionRecord(values map[string]string) (authsvc.SessionRecord, error) {
	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	role, err := strconv.Atoi(values["role"])
	if err != nil || !enums.Role(role).Valid() {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		UserID:    userID,
		Role:      enums.Role(role),
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(token string) string {
	return refreshPrefix + token
}

func sessionRefreshKey(sid string) string {
	return sessionRefreshPrefix + sid
}

func userSessionsKey(userID int64) string {
	return userSessionsPrefix + strconv.FormatInt(userID, 10)
}
