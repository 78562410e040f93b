package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// AdminAuth verifies HS256 bearer tokens minted by the identity provider
// in front of the admin console.
type AdminAuth struct {
	Secret []byte
	Issuer string // checked when non-empty
}

// AdminClaims scope an administrator to one tenant.
type AdminClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

var errMissingTenantClaim = errors.New("token has no tenant_id claim")

func (a AdminAuth) parse(raw string) (AdminClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.Issuer))
	}

	var claims AdminClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.Secret, nil
	}, opts...)
	if err != nil {
		return AdminClaims{}, err
	}
	claims.TenantID = strings.TrimSpace(claims.TenantID)
	if claims.TenantID == "" {
		return AdminClaims{}, errMissingTenantClaim
	}
	return claims, nil
}

// requireAdmin rejects requests without a valid admin token and stores the
// token's tenant in the context.  Admin handlers never take a tenant from
// the URL or body.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.admin.Secret) == 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "admin authentication is not configured")
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims, err := s.admin.parse(raw)
		if err != nil {
			log.Ctx(r.Context()).Debug().Err(err).Msg("admin token rejected")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin token")
			return
		}

		ctx := context.WithValue(r.Context(), adminTenantKey, claims.TenantID)
		ctx = log.Ctx(ctx).With().
			Str("tenant_id", claims.TenantID).
			Str("admin", claims.Subject).
			Logger().WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminTenant(ctx context.Context) string {
	t, _ := ctx.Value(adminTenantKey).(string)
	return t
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
