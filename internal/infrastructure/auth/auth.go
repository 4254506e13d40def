// Package auth validates caller identity on every request.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/config"
)

// UserIDKey is the gin context key holding the authenticated user ID.
const UserIDKey = "user_id"

// Validator validates JWTs using JWKS. With auth disabled it trusts the
// X-User-ID header, which is only acceptable behind a trusted gateway or
// in local development.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	logger := log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		logger.Warn().Msg("auth is disabled; trusting X-User-ID header")
		return &Validator{cfg: cfg, log: logger}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   cfg.JWKSRefreshInterval,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	return &Validator{cfg: cfg, log: logger, jwks: jwks}, nil
}

// Middleware resolves the caller identity and stores it in the gin
// context. Requests without a resolvable identity are rejected.
func (v *Validator) Middleware() gin.HandlerFunc {
	if !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
			if userID == "" {
				abortUnauthorized(c, "missing X-User-ID header")
				return
			}
			c.Set(UserIDKey, userID)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		parseOpts := []jwt.ParserOption{
			jwt.WithIssuer(v.cfg.AuthIssuer),
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		}
		if v.cfg.AuthAudience != "" {
			parseOpts = append(parseOpts, jwt.WithAudience(v.cfg.AuthAudience))
		}

		token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, parseOpts...)
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set(UserIDKey, subject)
		c.Next()
	}
}

// UserID returns the authenticated user ID from the gin context.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
