package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/salesdesk/crm-api/internal/config"
	"go.uber.org/zap"
)

// CORS builds the cross-origin policy from config. Explicit origins are
// honored as-is; a "*" entry or an empty list in development opens the
// policy up, while an empty list in production closes it entirely.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	dev := environment == "development" || environment == "local" || environment == ""

	switch {
	case hasWildcard(cfg.AllowedOrigins):
		if !dev {
			logger.Warn("wildcard CORS origin outside development",
				zap.String("environment", environment))
		}
		opts.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		opts.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS origins", zap.Strings("origins", cfg.AllowedOrigins))
	case dev:
		opts.AllowOriginFunc = anyOrigin
		logger.Info("CORS open for development")
	default:
		// An empty AllowedOrigins list would default to "*", so deny
		// through the func instead.
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("no CORS origins configured, denying cross-origin requests",
			zap.String("environment", environment))
	}

	return cors.Handler(opts)
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func anyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}
