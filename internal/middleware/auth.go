package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCookie carries the session token for browser clients.
const TokenCookie = "route_tracker_token"

const tokenTTL = 7 * 24 * time.Hour

const principalKey = "principal"

type Claims struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// Principal is the authenticated user of a request. Member is nil when the
// user has no member profile.
type Principal struct {
	User   *models.User
	Member *models.Member
}

// IsAdmin holds for staff users and for members flagged as admins.
func (p *Principal) IsAdmin() bool {
	if p == nil || p.User == nil {
		return false
	}
	return p.User.IsStaff || (p.Member != nil && p.Member.IsAdmin)
}

// PrincipalResolver loads a user and its optional member.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*models.User, *models.Member, error)
}

func GenerateToken(secret string, userID uuid.UUID, username string) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// SetTokenCookie logs the browser in.
func SetTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(tokenTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearTokenCookie(c *fiber.Ctx) {
	c.ClearCookie(TokenCookie)
}

func parseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Authenticate resolves the principal from a bearer token or the token
// cookie. Anonymous requests pass through without one; handlers decide what
// they need.
func Authenticate(resolver PrincipalResolver, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(TokenCookie)
		if authHeader := c.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			return c.Next()
		}

		claims, err := parseToken(secret, tokenString)
		if err != nil {
			slog.Debug("ignoring invalid session token", "error", err)
			return c.Next()
		}

		user, member, err := resolver.ResolvePrincipal(c.UserContext(), claims.UserID)
		if err != nil {
			// Token for a user that has since been deleted.
			return c.Next()
		}

		c.Locals(principalKey, &Principal{User: user, Member: member})
		return c.Next()
	}
}

// CurrentPrincipal returns the request's principal or nil when anonymous.
func CurrentPrincipal(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}

// SetMember replaces the request's member once a profile has been created.
func SetMember(c *fiber.Ctx, member *models.Member) {
	if p := CurrentPrincipal(c); p != nil {
		p.Member = member
	}
}

// RequireLogin sends anonymous requests to the login page with message.
func RequireLogin(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentPrincipal(c) == nil {
			AddFlash(c, LevelError, message)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// DeniedMessage is shown when a non-admin reaches an admin page.
const DeniedMessage = "You must be an administrator to access this page."

// AdminOnly denies everyone but admins, redirecting them home with message.
func AdminOnly(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentPrincipal(c).IsAdmin() {
			metrics.AuthorizationDenials.Inc()
			AddFlash(c, LevelError, message)
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
