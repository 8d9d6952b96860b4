package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"versize/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenIssuer is the iss claim of panel tokens.
	TokenIssuer = "versize-panel"
	// TokenAudience is the aud claim of panel tokens.
	TokenAudience = "versize-panel"
)

// PanelClaims identifies a reviewer by their Discord user id.
type PanelClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a panel token for a Discord user.
func IssueToken(secret, userID, name string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := PanelClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates signature, expiry, issuer and audience and returns the claims.
func ParseToken(secret, tokenString string) (*PanelClaims, error) {
	claims := &PanelClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing subject")
	}
	return claims, nil
}

// AuthRequired enforces a panel bearer token. WebSocket upgrades may pass it as ?token=
// because browsers cannot set headers on them.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid authorization header format"))
			}
			tokenString = parts[1]
		}
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", claims.Subject)
		c.Locals("userName", claims.Name)
		c.SetUserContext(WithUserID(c.UserContext(), claims.Subject))

		return c.Next()
	}
}

// CurrentActor returns the authenticated reviewer set by AuthRequired.
func CurrentActor(c *fiber.Ctx) (models.Actor, bool) {
	id, ok := c.Locals("userID").(string)
	if !ok || id == "" {
		return models.Actor{}, false
	}
	name, _ := c.Locals("userName").(string)
	return models.Actor{ID: id, Name: name}, true
}

// UserIDFromContext returns the user id stored by AuthRequired, if any.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}
