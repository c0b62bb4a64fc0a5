package adminapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role accepted by the admin API
const AdminRole = "admin"

var errInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssueAdminToken signs an HS256 admin token for the given subject
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin JWT secret is not configured")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: AdminRole,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(secret))
}

func validateToken(secret []byte, token string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, errInvalidToken
	}
	return c, nil
}

// RequireAdmin rejects requests without a valid admin bearer token
func RequireAdmin(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return jsonError(c, fiber.StatusUnauthorized, "MISSING_TOKEN")
		}

		tc, err := validateToken(key, token)
		if err != nil {
			return jsonError(c, fiber.StatusUnauthorized, "INVALID_TOKEN")
		}
		if tc.Role != AdminRole {
			return jsonError(c, fiber.StatusForbidden, "FORBIDDEN")
		}

		c.Locals("admin_subject", tc.Subject)
		return c.Next()
	}
}
