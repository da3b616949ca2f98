package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
)

const (
	// ContextKeyClaims is the gin context key for storing extracted claims.
	ContextKeyClaims = "claims"

	// Default header names if not configured.
	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
	defaultScopesHeader  = "X-User-Scopes"

	bearerPrefix = "Bearer "

	// jwtLeeway absorbs clock drift between the token issuer and us.
	jwtLeeway = 2 * time.Minute
)

// ErrInvalidCredentials is returned for a bearer token or claims header
// that cannot be trusted.
var ErrInvalidCredentials = errors.New("invalid credentials")

var claimsJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Claims represents the caller, taken from gateway headers or a bearer
// token.
type Claims struct {
	// Subject is the user ID (sub claim).
	Subject string

	// Roles is the list of roles assigned to the user.
	Roles []string

	// Scopes is the list of OAuth2 scopes granted.
	Scopes []string
}

// HasRole checks if the user has the specified role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole checks if the user has any of the specified roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

// HasScope checks if the user has the specified scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// tokenClaims is the payload accepted in HS256 bearer tokens.
type tokenClaims struct {
	Roles []string `json:"roles"`
	Scope string   `json:"scope"`
	jwt.RegisteredClaims
}

// forwardedClaims is the JSON a gateway forwards in the claims header.
type forwardedClaims struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
	Scope   string   `json:"scope"`
}

// ExtractClaims reads the caller's claims. With a JWT secret configured
// only a verified bearer token counts and the claims headers are ignored.
// Without one the claims header is read, then the individual subject,
// roles and scopes headers.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) (*Claims, error) {
	if cfg == nil {
		cfg = &config.AuthConfig{}
	}

	if cfg.JWTSecret != "" {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			return nil, fmt.Errorf("%w: bearer token required", ErrInvalidCredentials)
		}

		return parseBearer(strings.TrimPrefix(header, bearerPrefix), cfg)
	}

	if cfg.ClaimsHeader != "" {
		if raw := c.GetHeader(cfg.ClaimsHeader); raw != "" {
			var fwd forwardedClaims
			if err := claimsJSON.UnmarshalFromString(raw, &fwd); err != nil {
				return nil, fmt.Errorf("%w: claims header: %w", ErrInvalidCredentials, err)
			}

			return &Claims{
				Subject: fwd.Subject,
				Roles:   fwd.Roles,
				Scopes:  parseSpaceSeparated(fwd.Scope),
			}, nil
		}
	}

	claims := &Claims{
		Subject: c.GetHeader(headerOr(cfg.SubjectHeader, defaultSubjectHeader)),
	}

	// Parse roles (comma-separated)
	if rolesStr := c.GetHeader(headerOr(cfg.RolesHeader, defaultRolesHeader)); rolesStr != "" {
		claims.Roles = parseCommaSeparated(rolesStr)
	}

	// Parse scopes (space-separated per OAuth2 spec)
	if scopesStr := c.GetHeader(headerOr(cfg.ScopesHeader, defaultScopesHeader)); scopesStr != "" {
		claims.Scopes = parseSpaceSeparated(scopesStr)
	}

	return claims, nil
}

func parseBearer(raw string, cfg *config.AuthConfig) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithExpirationRequired(),
	}

	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	var tc tokenClaims

	_, err := jwt.ParseWithClaims(raw, &tc, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	return &Claims{
		Subject: tc.Subject,
		Roles:   tc.Roles,
		Scopes:  parseSpaceSeparated(tc.Scope),
	}, nil
}

// GetClaims retrieves claims from the gin context.
// Returns nil if claims are not present.
func GetClaims(c *gin.Context) *Claims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if cl, ok := claims.(*Claims); ok {
			return cl
		}
	}

	return nil
}

// RequireAuth returns middleware that requires an authenticated subject.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsOrAbort(c, cfg)
		if !ok {
			return
		}

		if claims.Subject == "" {
			dto.Abort(c, dto.ErrorCodeUnauthorized, "authentication required")
			return
		}

		c.Next()
	}
}

// RequireRole returns middleware that requires a specific role.
func RequireRole(cfg *config.AuthConfig, role string) gin.HandlerFunc {
	return RequireAny(cfg, func(claims *Claims) bool { return claims.HasRole(role) })
}

// RequireAny returns middleware that passes if ANY of the provided check functions pass.
//
// Example:
//
//	router.POST("/collections", RequireAny(cfg,
//	    func(c *Claims) bool { return c.HasRole("editor") },
//	    func(c *Claims) bool { return c.HasScope("quotes:write") },
//	))
func RequireAny(cfg *config.AuthConfig, checks ...func(*Claims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsOrAbort(c, cfg)
		if !ok {
			return
		}

		for _, check := range checks {
			if check(claims) {
				c.Next()
				return
			}
		}

		dto.Abort(c, dto.ErrorCodeForbidden, "insufficient permissions")
	}
}

// claimsOrAbort returns the claims stored by an earlier middleware or
// extracts them. Untrusted credentials abort with 401.
func claimsOrAbort(c *gin.Context, cfg *config.AuthConfig) (*Claims, bool) {
	if claims := GetClaims(c); claims != nil {
		return claims, true
	}

	claims, err := ExtractClaims(c, cfg)
	if err != nil {
		dto.Abort(c, dto.ErrorCodeUnauthorized, "invalid credentials")
		return nil, false
	}

	c.Set(ContextKeyClaims, claims)

	return claims, true
}

func headerOr(name, fallback string) string {
	if name == "" {
		return fallback
	}

	return name
}

// parseCommaSeparated splits a comma-separated string into trimmed values.
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// parseSpaceSeparated splits a space-separated string (OAuth2 scope format).
func parseSpaceSeparated(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return strings.Fields(s)
}
