package freight_api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fofoo/freightdesk/internal/models"
)

type ctxKey int

const principalKey ctxKey = 0

func principalFrom(ctx context.Context) models.Principal {
	p, _ := ctx.Value(principalKey).(models.Principal)
	return p
}

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		owner, err := a.owners.OwnerByToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		p := models.Principal{
			OwnerID:  owner.ID,
			Username: owner.Username,
			FullName: owner.FullName,
			Email:    owner.Email,
			Role:     owner.Role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter == nil || a.lookupRatePerMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ok, _, err := a.limiter.Allow(r.Context(), "rl:lookup:"+host, a.lookupRatePerMinute, time.Minute)
		if err != nil {
			// Redis being down must not take the lookup down with it.
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
