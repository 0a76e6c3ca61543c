package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"barbershop/internal/admin"

	"golang.org/x/time/rate"
)

const sessionKey ctxKey = "adminSession"

// loginLimiter throttles login attempts per client address. A client idle
// long enough to refill its bucket is forgotten, a fresh limiter behaves the
// same.
type loginLimiter struct {
	mu       sync.Mutex
	clients  map[string]*loginClient
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastScan time.Time
	now      func() time.Time
}

type loginClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &loginLimiter{
		clients: make(map[string]*loginClient),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		idle:    time.Minute,
		now:     time.Now,
	}
}

func (l *loginLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastScan) >= l.idle {
		l.evictIdle(now)
		l.lastScan = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &loginClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *loginLimiter) evictIdle(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idle {
			delete(l.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireAdmin validates the bearer token and puts the session in the
// request context.
func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		sess, err := s.cfg.Tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err == nil {
			err = sess.RequireAt(s.cfg.Now())
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) adminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.login.allow(clientKey(r)) {
		writeMessage(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.cfg.Gate.Login(req.Password)
	if err != nil {
		s.logger.Warn().Str("client", clientKey(r)).Msg("admin login rejected")
		s.writeError(w, r, err)
		return
	}
	token, err := s.cfg.Tokens.Issue(sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := map[string]any{"token": token}
	if !sess.ExpiresAt.IsZero() {
		resp["expiresAt"] = sess.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func sessionFrom(r *http.Request) admin.Session {
	sess, _ := r.Context().Value(sessionKey).(admin.Session)
	return sess
}
