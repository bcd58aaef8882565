// Package middleware provides authentication, logging, tracing and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"faceblog/internal/config"
	"faceblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenCookie carries the JWT for browser clients.
const AccessTokenCookie = "access_token"

// RevocationStore records logged-out token IDs.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims are the parsed fields of an access token.
type Claims struct {
	UserID    uint
	Username  string
	ID        string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	revoked  RevocationStore
}

// NewTokenManager builds a TokenManager from cfg. revoked may be nil, in
// which case logout cannot invalidate tokens before expiry.
func NewTokenManager(cfg *config.Config, revoked RevocationStore) *TokenManager {
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      ttl,
		revoked:  revoked,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID uint, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      m.issuer,
		"aud":      m.audience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates signature, expiry, issuer, audience and revocation.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, jti)
		if err != nil {
			Logger.WarnContext(ctx, "token revocation lookup failed", "error", err)
		} else if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	username, _ := claims["username"].(string)
	out := &Claims{UserID: uint(userID), Username: username, ID: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return m.revoked.Revoke(ctx, claims.ID, ttl)
}

// TokenFromRequest looks for a bearer header, then the access cookie, then
// the "token" query parameter used by websocket clients.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}
	return c.Query("token")
}

func (m *TokenManager) authenticate(c *fiber.Ctx) (*Claims, error) {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	return m.Parse(c.UserContext(), tokenString)
}

func setIdentity(c *fiber.Ctx, claims *Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	c.Locals("claims", claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// Required rejects requests without a valid token.
func (m *TokenManager) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through.
func (m *TokenManager) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := m.authenticate(c); err == nil {
			setIdentity(c, claims)
		}
		return c.Next()
	}
}
