package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"
	revokedPrefix = "session:revoked:"
)

// SessionClaims is the decoded content of a session token.
type SessionClaims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// TokenService issues and verifies signed session tokens. Logged-out tokens
// are remembered in Redis until they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret. rdb may be nil,
// in which case revocation is not tracked.
func NewTokenService(secret string, ttl time.Duration, rdb *redis.Client) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, rdb: rdb, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for user.
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret not configured")
	}

	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies tokenString and returns its claims. Expired, malformed,
// foreign or revoked tokens are UNAUTHORIZED.
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, &models.AppError{Code: models.CodeUnauthorized, Message: "invalid session", Err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("invalid session claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("invalid session subject")
	}
	jti, _ := claims["jti"].(string)
	username, _ := claims["username"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewUnauthorizedError("invalid session expiry")
	}

	revoked, err := s.isRevoked(ctx, jti)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "session revocation check failed, accepting token",
			slog.String("error", err.Error()))
	}
	if revoked {
		return nil, models.NewUnauthorizedError("session has been revoked")
	}

	return &SessionClaims{
		UserID:    uint(userID),
		Username:  username,
		JTI:       jti,
		ExpiresAt: exp.Time,
	}, nil
}

// Revoke marks the token's jti as logged out until the token would expire.
func (s *TokenService) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.rdb == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedPrefix+claims.JTI, "1", remaining).Err()
}

func (s *TokenService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil || jti == "" {
		return false, nil
	}
	err := s.rdb.Get(ctx, revokedPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
