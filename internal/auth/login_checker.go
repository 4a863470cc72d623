package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrNotLoggedIn = errors.New("not logged in")

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	_, err := lc.GetLoggedUserID(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) || errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetLoggedUserID resolves the session token to the owning user id,
// or returns ErrNotLoggedIn for unknown or expired tokens.
func (lc *LoginChecker) GetLoggedUserID(ctx context.Context, token string) (int, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotLoggedIn
		}
		return 0, err
	}

	var session LoginSession
	if err := json.Unmarshal([]byte(cmd.Val()), &session); err != nil {
		return 0, err
	}

	sessionDuration := time.Since(time.Unix(session.CreatedAt, 0))
	if sessionDuration > lc.ttl {
		return 0, ErrNotLoggedIn
	}

	return session.UserID, nil
}
