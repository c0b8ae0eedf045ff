package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/amaurycolochos7/shopp-kingice/config"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	josejwt "gopkg.in/go-jose/go-jose.v2/jwt"
)

const (
	principalKey       = "principal"
	accessTokenKey     = "access_token"
	validatedClaimsKey = "validated_claims"
)

// CustomClaims contains the admin data carried in the token
type CustomClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Validate rejects tokens without a known role
func (c CustomClaims) Validate(ctx context.Context) error {
	if !models.AdminRole(c.Role).Valid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// Principal is the authenticated admin behind a request
type Principal struct {
	ID       uint
	Username string
	Role     models.AdminRole
}

// SessionChecker reports whether an access token still has an open session
type SessionChecker interface {
	SessionActive(ctx context.Context, token string) (bool, error)
}

type authOptions struct {
	allowQueryToken bool
}

// AuthOption customises EnsureValidToken
type AuthOption func(*authOptions)

// WithQueryToken also accepts the token from the ?token= query parameter.
// Browsers cannot set headers on websocket upgrades.
func WithQueryToken() AuthOption {
	return func(o *authOptions) { o.allowQueryToken = true }
}

// EnsureValidToken is a middleware that checks the admin JWT and its session
func EnsureValidToken(cfg *config.Config, sessions SessionChecker, logger *zap.Logger, opts ...AuthOption) gin.HandlerFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	jwtValidator, err := validator.New(
		func(context.Context) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		},
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		logger.Fatal("Failed to set up the jwt validator", zap.Error(err))
	}

	extractor := jwtmiddleware.TokenExtractor(jwtmiddleware.AuthHeaderTokenExtractor)
	if o.allowQueryToken {
		extractor = jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.ParameterTokenExtractor("token"),
		)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		switch {
		case errors.Is(err, jwtmiddleware.ErrJWTMissing):
			code, message = "MISSING_TOKEN", "Authentication token required"
		case errors.Is(err, josejwt.ErrExpired):
			code, message = "TOKEN_EXPIRED", "Token expired, please log in again"
		}
		logger.Debug("Rejected admin token", zap.String("code", code), zap.Error(err))
		writeAuthError(w, http.StatusUnauthorized, code, message)
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(extractor),
	)

	return func(c *gin.Context) {
		passed := false

		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Failed to validate JWT.")
				return
			}

			principal, err := principalFromClaims(claims)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Failed to validate JWT.")
				return
			}

			token, _ := extractor(r)
			active, err := sessions.SessionActive(r.Context(), token)
			if err != nil {
				logger.Error("Failed to check admin session", zap.Error(err))
				writeAuthError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not verify session")
				return
			}
			if !active {
				writeAuthError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "Session closed or expired, please log in again")
				return
			}

			passed = true
			c.Request = r
			c.Set(principalKey, principal)
			c.Set(accessTokenKey, token)
			c.Set(validatedClaimsKey, claims)
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func principalFromClaims(claims *validator.ValidatedClaims) (*Principal, error) {
	id, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, &AuthError{Code: "INVALID_SUBJECT", Message: "Token subject is not an admin id"}
	}
	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}
	return &Principal{
		ID:       uint(id),
		Username: custom.Username,
		Role:     models.AdminRole(custom.Role),
	}, nil
}

// GetPrincipal extracts the authenticated admin from the Gin context
func GetPrincipal(c *gin.Context) (*Principal, error) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_PRINCIPAL", Message: "Principal not found in context"}
	}
	principal, ok := value.(*Principal)
	if !ok {
		return nil, &AuthError{Code: "INVALID_PRINCIPAL", Message: "Principal is not in the expected format"}
	}
	return principal, nil
}

// SetPrincipal stores principal on the context. Used by tests and by callers
// that authenticate through other means.
func SetPrincipal(c *gin.Context, principal *Principal) {
	c.Set(principalKey, principal)
}

// GetAccessToken returns the raw token of an authenticated request
func GetAccessToken(c *gin.Context) (string, error) {
	value, exists := c.Get(accessTokenKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}
	token, ok := value.(string)
	if !ok || token == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}
	return token, nil
}

// RequireRole is a middleware that only lets admins with one of roles through
func RequireRole(roles ...models.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := GetPrincipal(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Not authenticated",
				},
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to perform this action",
			},
		})
		c.Abort()
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"success":false,"error":{"code":%q,"message":%q}}`, code, message)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
