package middleware

import (
	"context"
	"net/http"
	"strings"

	"diapets/internal/platform/logger"
	"diapets/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Solo se aceptan sin verifier (modo dev).
const (
	DebugUserHeader     = "X-Debug-User-ID"
	DebugUserNameHeader = "X-Debug-User-Name"
)

// AuthContext resuelve el usuario del request y lo deja en el contexto.
// Con verifier usa el bearer token; sin verifier acepta DebugUserHeader.
// Nunca corta el request: cada handler decide si responde 401.
func AuthContext(verifier auth.Verifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					r = r.WithContext(WithClaims(r.Context(), auth.Claims{
						UserID: uid,
						Name:   strings.TrimSpace(r.Header.Get(DebugUserNameHeader)),
					}))
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Debug("token rejected", map[string]any{"path": r.URL.Path, "error": err})
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return auth.Claims{}, false
	}
	return c, true
}

func bearerToken(h string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
