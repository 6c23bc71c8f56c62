package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"lumina-backend/application/services"
	"lumina-backend/infrastructure/config"
	"lumina-backend/interfaces/http/rest/handlers"
	"lumina-backend/interfaces/http/rest/middleware"
	"lumina-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg          *config.Config
	auth         *services.AuthService
	users        *services.UserService
	albums       *services.AlbumService
	media        *services.MediaService
	comments     *services.CommentService
	interactions *services.InteractionService
	metrics      *observability.Metrics
	tracer       *observability.Tracer
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	auth *services.AuthService,
	users *services.UserService,
	albums *services.AlbumService,
	media *services.MediaService,
	comments *services.CommentService,
	interactions *services.InteractionService,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:          cfg,
		auth:         auth,
		users:        users,
		albums:       albums,
		media:        media,
		comments:     comments,
		interactions: interactions,
		metrics:      metrics,
		tracer:       tracer,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.lumina.photos"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	authHandler := handlers.NewAuthHandler(rt.auth, rt.users, rt.cfg.SessionCookie, rt.cfg.IsProduction(), rt.metrics, rt.logger)
	userHandler := handlers.NewUserHandler(rt.users, rt.logger)
	albumHandler := handlers.NewAlbumHandler(rt.albums, rt.logger)
	mediaHandler := handlers.NewMediaHandler(rt.media, rt.logger)
	commentHandler := handlers.NewCommentHandler(rt.comments, rt.logger)
	interactionHandler := handlers.NewInteractionHandler(rt.interactions, rt.logger)

	authenticate := middleware.Authenticate(rt.auth, rt.cfg.SessionCookie, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints stay outside the session gate.
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			if rt.tracer != nil {
				r.Use(middleware.Tracing(rt.tracer))
			}

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/password", authHandler.ChangePassword)

			r.Route("/albums", func(r chi.Router) {
				r.Post("/", albumHandler.Create)
				r.Get("/", albumHandler.List)
				r.Get("/{albumID}", albumHandler.Get)
				r.Put("/{albumID}", albumHandler.Update)
				r.Delete("/{albumID}", albumHandler.Delete)
				r.Get("/{albumID}/media", mediaHandler.ListByAlbum)
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/", mediaHandler.Create)
				r.Get("/{mediaID}", mediaHandler.Get)
				r.Put("/{mediaID}", mediaHandler.Update)
				r.Delete("/{mediaID}", mediaHandler.Delete)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Post("/", commentHandler.Create)
				r.Get("/{commentID}", commentHandler.Get)
				r.Put("/{commentID}", commentHandler.Update)
				r.Delete("/{commentID}", commentHandler.Delete)
			})
			r.Get("/targets/{targetType}/{targetID}/comments", commentHandler.ListByTarget)

			r.Route("/interactions", func(r chi.Router) {
				r.Get("/{interactionType}", interactionHandler.ListMine)
				r.Put("/{interactionType}/{targetType}/{targetID}", interactionHandler.Add)
				r.Delete("/{interactionType}/{targetType}/{targetID}", interactionHandler.Remove)
				r.Get("/{interactionType}/{targetType}/{targetID}", interactionHandler.Has)
				r.Get("/{interactionType}/{targetType}/{targetID}/users", interactionHandler.ListByTarget)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin())
					r.Post("/{interactionType}/{targetType}/{targetID}/rebuild", interactionHandler.RebuildCounter)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/by-username/{username}", userHandler.GetByUsername)
				r.Get("/{userID}", userHandler.Get)
				r.Put("/{userID}", userHandler.Update)
				r.Delete("/{userID}", userHandler.Delete)
				r.Get("/{userID}/albums", albumHandler.ListByCreator)
				r.Get("/{userID}/media", mediaHandler.ListByCreator)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
