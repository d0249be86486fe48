package middleware

import (
	"context"
	"errors"
	"net/http"

	"bancard-connector/internal/auth"
	"bancard-connector/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	MerchantKey    contextKey = "merchant"
	TokenClaimsKey contextKey = "jwtClaims"
)

var ErrMissingToken = errors.New("missing bearer token")

// MerchantFromContext returns the authenticated caller set by Auth.
func MerchantFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(MerchantKey).(string)
	return v, ok && v != ""
}

func parseBearer(r *http.Request, secret []byte) (jwt.MapClaims, error) {
	tokenStr := auth.ExtractBearerToken(r)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Auth rejects requests without a valid HS256 bearer token signed with secret. The
// token subject is stored as the merchant.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearer(r, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("unauthorized request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), TokenClaimsKey, claims)
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				ctx = context.WithValue(ctx, MerchantKey, sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
