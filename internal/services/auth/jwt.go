package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	refreshKeyPrefix = "refresh:"
)

// ErrInvalidRefreshToken is returned for unknown, expired or already used
// refresh tokens.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

type JWTService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewJWTService(secretKey string, redisClient *redis.Client) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		redis:     redisClient,
	}
}

// GenerateAccessToken signs a short-lived HS256 token with the claims the
// middleware reads back out.
func (s *JWTService) GenerateAccessToken(userID int, username, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  strconv.Itoa(userID),
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(accessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// GenerateTokens returns an access token plus an opaque refresh token
// stored in redis for refreshTokenTTL.
func (s *JWTService) GenerateTokens(ctx context.Context, userID int, username, role string) (string, string, error) {
	accessToken, err := s.GenerateAccessToken(userID, username, role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return "", "", err
	}

	err = s.redis.Set(ctx, refreshKeyPrefix+refreshToken, userID, refreshTokenTTL).Err()
	if err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// ValidateRefreshToken resolves a refresh token to its user ID and revokes
// it, so every refresh token works exactly once.
func (s *JWTService) ValidateRefreshToken(ctx context.Context, token string) (int, error) {
	key := refreshKeyPrefix + token

	val, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, ErrInvalidRefreshToken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return userID, nil
}

// RevokeRefreshToken drops a refresh token on logout. Unknown tokens are
// not an error.
func (s *JWTService) RevokeRefreshToken(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, refreshKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
