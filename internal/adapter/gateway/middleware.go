package gateway

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"binna-crm/internal/domain"
)

// userLimiter keeps one token bucket per user id.
type userLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newUserLimiter(perMinute, burst int) *userLimiter {
	return &userLimiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// Allow reports whether the user may issue another request now.
func (l *userLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// authenticated resolves the bearer token to a user, applies the per-user
// rate limit and places the user in the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized,
				domain.NewDomainError("gateway.auth", domain.ErrAuthInvalid, "missing bearer token"))
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if !s.limiter.Allow(user.ID) {
			writeError(w, http.StatusTooManyRequests,
				domain.NewDomainError("gateway.auth", domain.ErrRateLimit, ""))
			return
		}

		next(w, r.WithContext(domain.ContextWithUser(r.Context(), user)))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
