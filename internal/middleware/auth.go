package middleware

import (
	"net/http"
	"strings"

	"codehut/internal/model"
	"codehut/internal/token"

	"github.com/labstack/echo/v4"
)

// DemoUserID is the identity given to anonymous callers while payments run in demo mode.
const DemoUserID = "demo-user-001"

const identityKey = "identity"

type Identity struct {
	UserID   string
	Username string
	Email    string
	Role     model.Role
	Demo     bool
}

// GetIdentity returns the caller set by one of the auth middlewares, or nil for anonymous requests.
func GetIdentity(c echo.Context) *Identity {
	id, _ := c.Get(identityKey).(*Identity)
	return id
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if id := GetIdentity(c); id != nil {
		return id.UserID
	}
	return ""
}

type Auth struct {
	tokens *token.Manager
}

func NewAuth(tokens *token.Manager) *Auth {
	return &Auth{tokens: tokens}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func (a *Auth) identify(raw string) (*Identity, error) {
	claims, err := a.tokens.ParseAccess(raw)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   claims.UserID(),
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// RequireAuth rejects requests without a valid access token.
func (a *Auth) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			id, err := a.identify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets everyone else through anonymously.
func (a *Auth) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if id, err := a.identify(raw); err == nil {
					c.Set(identityKey, id)
				}
			}
			return next(c)
		}
	}
}

// PaymentAuth behaves like RequireAuth, except that in demo mode anonymous callers
// get the synthetic demo identity.
func (a *Auth) PaymentAuth(demo bool) echo.MiddlewareFunc {
	strict := a.RequireAuth()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		authed := strict(next)
		return func(c echo.Context) error {
			if demo && bearerToken(c) == "" {
				c.Set(identityKey, &Identity{UserID: DemoUserID, Username: "demo", Role: model.RoleUser, Demo: true})
				return next(c)
			}
			return authed(c)
		}
	}
}

// RequireRoles must run after RequireAuth.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := GetIdentity(c)
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}
