package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-collab/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// ParseBearer memvalidasi header Authorization dan mengembalikan
// user ID, jti, dan unix expiry dari token. Token yang jti-nya sudah
// di-revoke (logout) dianggap tidak valid.
func ParseBearer(authHeader string) (int, string, int64, error) {
	if authHeader == "" {
		return 0, "", 0, ErrInvalidToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, "", 0, ErrInvalidToken
	}
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return 0, "", 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", 0, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok || int64(exp) < time.Now().Unix() {
		return 0, "", 0, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", 0, ErrInvalidToken
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return 0, "", 0, ErrInvalidToken
	}

	// periksa apakah token sudah di-revoke lewat logout
	if config.RedisClient != nil {
		if _, err := config.RedisClient.Get(config.Ctx, "revoked:"+jti).Result(); err == nil {
			return 0, "", 0, ErrInvalidToken
		}
	}
	return int(userID), jti, int64(exp), nil
}

func UseToken(c *fiber.Ctx) error {
	userID, jti, exp, err := ParseBearer(c.Get("Authorization"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
	}
	c.Locals("userID", userID)
	c.Locals("jti", jti)
	c.Locals("exp", exp)
	return c.Next()
}
