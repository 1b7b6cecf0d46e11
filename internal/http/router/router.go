package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/http/handler"
	"github.com/salesdesk/crm-api/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	healthHandler     *handler.HealthHandler
	leadHandler       *handler.LeadHandler
	leadSourceHandler *handler.LeadSourceHandler
	customerHandler   *handler.CustomerHandler
	dealHandler       *handler.DealHandler
	followupHandler   *handler.FollowupHandler
	noteHandler       *handler.NoteHandler
	quotationHandler  *handler.QuotationHandler
	productHandler    *handler.ProductHandler
	userHandler       *handler.UserHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	leadHandler *handler.LeadHandler,
	leadSourceHandler *handler.LeadSourceHandler,
	customerHandler *handler.CustomerHandler,
	dealHandler *handler.DealHandler,
	followupHandler *handler.FollowupHandler,
	noteHandler *handler.NoteHandler,
	quotationHandler *handler.QuotationHandler,
	productHandler *handler.ProductHandler,
	userHandler *handler.UserHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		healthHandler:     healthHandler,
		leadHandler:       leadHandler,
		leadSourceHandler: leadSourceHandler,
		customerHandler:   customerHandler,
		dealHandler:       dealHandler,
		followupHandler:   followupHandler,
		noteHandler:       noteHandler,
		quotationHandler:  quotationHandler,
		productHandler:    productHandler,
		userHandler:       userHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))

	r.Get("/health", rt.healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes: IP rate limited, no auth
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitByIP)
			r.Post("/leads/register", rt.leadHandler.Register)
			r.Get("/products/public", rt.productHandler.ListPublic)
		})

		// Protected routes: authenticated, per-user rate limited
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", rt.userHandler.Me)

			// Users
			r.Route("/users", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).
					Post("/", rt.userHandler.Register)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Get("/", rt.userHandler.List)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Put("/{id}", rt.userHandler.Update)
			})

			// Lead sources
			r.Route("/lead-sources", func(r chi.Router) {
				r.Get("/", rt.leadSourceHandler.List)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/", rt.leadSourceHandler.Create)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Put("/{id}", rt.leadSourceHandler.Update)
			})

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.List)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/", rt.leadHandler.Create)
				r.Get("/lost", rt.leadHandler.ListLost)
				r.Get("/lost/entry", rt.leadHandler.GetLost)
				r.Get("/{id}", rt.leadHandler.GetByID)
				r.Put("/{id}", rt.leadHandler.Update)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/{id}/assign", rt.leadHandler.Assign)
			})

			// Customers
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", rt.customerHandler.List)
				r.Post("/", rt.customerHandler.Create)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/import", rt.customerHandler.Import)
				r.Get("/{id}", rt.customerHandler.GetByID)
				r.Put("/{id}", rt.customerHandler.Update)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/{id}/assign", rt.customerHandler.Assign)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Delete("/{id}", rt.customerHandler.Delete)
			})

			// Deals and their archives
			r.Route("/deals", func(r chi.Router) {
				r.Get("/", rt.dealHandler.List)
				r.Post("/", rt.dealHandler.Create)
				r.Get("/won", rt.dealHandler.ListWon)
				r.Get("/won/{id}", rt.dealHandler.GetWonByID)
				r.Get("/lost", rt.dealHandler.ListLost)
				r.Get("/lost/{id}", rt.dealHandler.GetLostByID)
				r.Get("/{id}", rt.dealHandler.GetByID)
				r.Put("/{id}", rt.dealHandler.Update)
				r.Delete("/{id}", rt.dealHandler.Delete)
			})

			// Followups
			r.Route("/followups", func(r chi.Router) {
				r.Get("/", rt.followupHandler.List)
				r.Post("/", rt.followupHandler.Create)
				r.Get("/{id}", rt.followupHandler.GetByID)
				r.Put("/{id}", rt.followupHandler.Update)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Delete("/{id}", rt.followupHandler.Delete)
			})

			// Notes
			r.Route("/notes", func(r chi.Router) {
				r.Get("/", rt.noteHandler.ListForEntity)
				r.Post("/", rt.noteHandler.Create)
				r.Delete("/{id}", rt.noteHandler.Delete)
			})

			// Quotations
			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", rt.quotationHandler.List)
				r.Post("/", rt.quotationHandler.Create)
				r.Get("/{id}", rt.quotationHandler.GetByID)
				r.Put("/{id}/status", rt.quotationHandler.UpdateStatus)
			})

			// Products
			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Post("/", rt.productHandler.Create)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Put("/{id}", rt.productHandler.Update)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager)).
					Delete("/{id}", rt.productHandler.Delete)
			})
		})
	})

	return r
}
