package middleware

import (
	"strings"

	"wallet-service/src/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const authLocalKey = "auth"

// VerifyBearer validates the bearer token and stores the caller identity
// on the request context.
func VerifyBearer(v *viper.Viper) fiber.Handler {
	secret := []byte(v.GetString("jwt.secret"))

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "missing bearer token",
			})
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or expired token",
			})
		}

		metadata := token.Metadata{}
		if rawMeta, ok := claims["metadata"].(map[string]interface{}); ok {
			metadata.UserID, _ = rawMeta["user_id"].(string)
			metadata.FullName, _ = rawMeta["full_name"].(string)
			metadata.Role, _ = rawMeta["role"].(string)
		}
		if metadata.UserID == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "token carries no user identity",
			})
		}

		ctx.Locals(authLocalKey, &metadata)
		return ctx.Next()
	}
}

// VerifyAdmin must run after VerifyBearer.
func VerifyAdmin() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := GetUser(ctx)
		if auth == nil || auth.Role != token.RoleAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "admin role required",
			})
		}
		return ctx.Next()
	}
}

func GetUser(ctx *fiber.Ctx) *token.Metadata {
	metadata, _ := ctx.Locals(authLocalKey).(*token.Metadata)
	return metadata
}
