package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"heroesfund/internal/domain"
)

type authCtxKey int

const authActorKey authCtxKey = iota

// requireActor resolves the caller from the bearer actor token.
func (a *api) requireActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		actor, err := a.tokens.Decode(token)
		if err != nil {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func CurrentActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(authActorKey).(domain.Actor)
	return actor, ok && actor.UserID != ""
}

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, authActorKey, actor)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
