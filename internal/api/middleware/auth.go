package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/session"
)

// Context keys set by Auth.
const (
	KeyAccount  = "account"
	KeySession  = "session"
	KeyTokenID  = "token_id"
	KeyTokenExp = "token_exp"
)

type AuthConfig struct {
	Secret string
	// Revoker may be nil when sign-out does not revoke tokens.
	Revoker    ports.TokenRevoker
	Profiles   session.ProfileLoader
	AdminEmail string
	Log        zerolog.Logger
}

// Auth validates the bearer JWT, rejects revoked tokens and attaches a
// session resolved for the token's account. Browsers' EventSource cannot
// send headers, so the token is also accepted as ?access_token=.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(cfg.Secret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			email, _ := claims["email"].(string)
			jti, _ := claims["jti"].(string)

			ctx := c.Request().Context()
			if cfg.Revoker != nil && jti != "" {
				revoked, err := cfg.Revoker.IsRevoked(ctx, jti)
				if err != nil {
					cfg.Log.Warn().Err(err).Msg("revocation check failed")
				} else if revoked {
					return domain.ErrTokenRevoked
				}
			}

			acct := &domain.Account{ID: sub, Email: email}
			store := session.NewStore(cfg.Profiles, cfg.AdminEmail, cfg.Log)
			store.OnIdentityChanged(ctx, acct)

			c.Set(KeyAccount, acct)
			c.Set(KeySession, store)
			c.Set(KeyTokenID, jti)
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				c.Set(KeyTokenExp, exp.Time)
			}

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if t := c.QueryParam("access_token"); t != "" {
			return t, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// Session returns the session attached by Auth, or nil.
func Session(c echo.Context) *session.Store {
	s, _ := c.Get(KeySession).(*session.Store)
	return s
}

// TokenExpiry returns the expiry of the request's token, zero if unknown.
func TokenExpiry(c echo.Context) time.Time {
	t, _ := c.Get(KeyTokenExp).(time.Time)
	return t
}
