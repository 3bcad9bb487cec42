package middleware

import (
	"fmt"
	"strings"
	"time"

	"coursehub/logger"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	LocalUserID    = "userId"
	LocalPrincipal = "principal"
)

// GenerateJWT signs a token carrying the same claims the identity provider
// issues. Used for local development and tests.
func GenerateJWT(secret string, p services.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         p.ID,
		"email":       p.Email,
		"given_name":  p.FirstName,
		"family_name": p.LastName,
		"picture":     p.Picture,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTMiddleware verifies the identity provider's bearer token and stores the
// principal in the request context.
func JWTMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		// Get the token from the Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}

		// The token should be prefixed with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}
		principal := services.Principal{
			ID:        claimString(claims, "sub"),
			Email:     claimString(claims, "email"),
			FirstName: claimString(claims, "given_name"),
			LastName:  claimString(claims, "family_name"),
			Picture:   claimString(claims, "picture"),
		}
		if principal.ID == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}

		c.Locals(LocalUserID, principal.ID)
		c.Locals(LocalPrincipal, principal)
		return c.Next()
	}
}

// SyncUser mirrors the authenticated principal into the users table. Must run
// after JWTMiddleware.
func SyncUser(users *services.UserService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := c.Locals(LocalPrincipal).(services.Principal)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}
		if _, err := users.Sync(c.UserContext(), principal); err != nil {
			log.Error("sync user failed", "user_id", principal.ID, "error", err)
			return ErrorResponse(c, err)
		}
		return c.Next()
	}
}

// UserID returns the authenticated subject set by JWTMiddleware.
func UserID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(LocalUserID).(string)
	return id, ok && id != ""
}

func claimString(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
