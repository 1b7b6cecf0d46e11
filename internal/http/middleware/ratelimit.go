package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter provides two per-minute limits: a stricter one keyed by
// client IP for the public endpoints, and a higher one keyed by user id
// once a request is authenticated. Whitelisted IPs and paths bypass both.
type RateLimiter struct {
	cfg       *config.RateLimitConfig
	logger    *zap.Logger
	byIP      func(http.Handler) http.Handler
	byUser    func(http.Handler) http.Handler
	skipIPs   map[string]struct{}
	skipPaths map[string]struct{}
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:       cfg,
		logger:    logger,
		skipIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		skipPaths: make(map[string]struct{}, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.skipIPs[ip] = struct{}{}
	}
	for _, p := range cfg.WhitelistPaths {
		rl.skipPaths[p] = struct{}{}
	}

	rl.byIP = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rl.limitExceeded),
	)
	rl.byUser = httprate.Limit(
		cfg.RequestsPerMinuteAuth,
		time.Minute,
		httprate.WithKeyFuncs(rl.keyByUserOrIP),
		httprate.WithLimitHandler(rl.limitExceeded),
	)

	logger.Info("rate limiter configured",
		zap.Int("per_minute_public", cfg.RequestsPerMinute),
		zap.Int("per_minute_auth", cfg.RequestsPerMinuteAuth))
	return rl
}

// Limit applies the authenticated limit, falling back to the IP limit
// when no identity is on the context.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := auth.FromContext(r.Context()); ok {
			rl.byUser(next).ServeHTTP(w, r)
			return
		}
		rl.byIP(next).ServeHTTP(w, r)
	})
}

// LimitByIP applies the public IP limit. Used ahead of authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		rl.byIP(next).ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if rl.pathWhitelisted(r.URL.Path) {
		return true
	}
	_, ok := rl.skipIPs[clientIP(r)]
	return ok
}

func (rl *RateLimiter) pathWhitelisted(path string) bool {
	if _, ok := rl.skipPaths[path]; ok {
		return true
	}
	// Entries ending in /* whitelist the whole subtree.
	for p := range rl.skipPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) keyByUserOrIP(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		return "user:" + userCtx.UserIDString(), nil
	}
	return "ip:" + clientIP(r), nil
}

func (rl *RateLimiter) limitExceeded(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("rate limit exceeded",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"type":"rate_limited","title":"Too Many Requests","status":429}`))
}

// clientIP prefers the proxy headers and falls back to the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
