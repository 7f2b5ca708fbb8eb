package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretMissing = errors.New("jwt secret is not set")
	ErrWrongGame     = errors.New("token is not issued for this game")
)

const defaultTTL = 7 * 24 * time.Hour

// Claims 对局令牌：持有者可以操作 GameID 指定的那一局。
type Claims struct {
	GameID string `json:"game_id"`
	jwt.RegisteredClaims
}

// Award 签发对局令牌，ttl <= 0 时默认 7 天过期。
func Award(secret, gameID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := time.Now()
	claims := &Claims{
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   gameID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 解析并验证令牌，只接受 HS256。
func ParseToken(secret, tokenStr string) (*Claims, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if token == nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// VerifyGame 校验令牌并确认它属于 gameID。
func VerifyGame(secret, tokenStr, gameID string) error {
	claims, err := ParseToken(secret, tokenStr)
	if err != nil {
		return err
	}
	if claims.GameID != gameID {
		return ErrWrongGame
	}
	return nil
}
