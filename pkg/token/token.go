package token

import (
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"RollCall/config"
	"RollCall/pkg/errors"
)

const (
	IdentityKey = "uid"
	RoleKey     = "role"

	refreshType = "refresh"
)

// middleware 包基于同一个实例构造鉴权中间件，保证密钥和过期时间一致
var sharedGenerator *jwt.HertzJWTMiddleware

func Init() error {
	g, err := jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     accessTTL(),
		MaxRefresh:  refreshTTL(),
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	sharedGenerator = g
	return nil
}

// GetGenerator 返回共享的 token 生成器，Init 之前调用得到 nil
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

func accessTTL() time.Duration {
	return time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute
}

func refreshTTL() time.Duration {
	return time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
}

func sign(claims jwtv5.MapClaims) (string, error) {
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).
		SignedString([]byte(config.Cfg.JWTSecret))
}

// GenerateTokenPair 签发一对 access/refresh token。两枚都携带用户 ID 和角色，
// refresh token 额外带 type 声明，防止拿 access token 去换新 token。
func GenerateTokenPair(userID int64, role string) (accessToken, refreshToken string, expiresIn int, err error) {
	if sharedGenerator == nil {
		return "", "", 0, errors.ErrTokenGeneratorNotInitialized
	}

	now := time.Now()
	uid := strconv.FormatInt(userID, 10)
	expiresAt := now.Add(accessTTL())

	accessToken, err = sign(jwtv5.MapClaims{
		IdentityKey: uid,
		RoleKey:     role,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = sign(jwtv5.MapClaims{
		IdentityKey: uid,
		RoleKey:     role,
		"type":      refreshType,
		"iat":       now.Unix(),
		"exp":       now.Add(refreshTTL()).Unix(),
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if expiresIn = int(time.Until(expiresAt).Seconds()); expiresIn < 0 {
		expiresIn = 0
	}
	return accessToken, refreshToken, expiresIn, nil
}

// ValidateRefreshToken 解析并校验 refresh token，返回其中的用户 ID 与角色
func ValidateRefreshToken(tokenString string) (userID int64, role string, err error) {
	parsed, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errors.ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return []byte(config.Cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsed.Valid {
		return 0, "", errors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return 0, "", errors.ErrInvalidTokenClaims
	}
	if t, _ := claims["type"].(string); t != refreshType {
		return 0, "", errors.ErrInvalidTokenType
	}

	userID, ok = parseUserIDClaim(claims[IdentityKey])
	if !ok {
		return 0, "", errors.ErrUserIDNotFound
	}

	role, _ = claims[RoleKey].(string)
	return userID, role, nil
}

// uid 正常是字符串，但经过 JSON 反序列化的 claims 可能变成 float64
func parseUserIDClaim(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
