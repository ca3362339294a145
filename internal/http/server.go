package httpapi

import (
	"net/http"
	"time"

	"safeguard-go/internal/config"
	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	DB       *sqlx.DB
	Config   config.Config
	Tokens   services.TokenService
	Sessions *services.SessionStore
	AlertHub *services.AlertHub
	Metrics  *Metrics
	Logger   *zap.Logger
}

func NewServer(db *sqlx.DB, sessions *services.SessionStore, cfg config.Config, hub *services.AlertHub, logger *zap.Logger) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:       db,
		Config:   cfg,
		Tokens:   tokens,
		Sessions: sessions,
		AlertHub: hub,
		Metrics:  NewMetrics(),
		Logger:   logger,
	}
}

func (s *Server) Router() (http.Handler, error) {
	authLimit, err := RateLimit(s.Config.AuthRateLimit, s.Config.TrustedProxies, s.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(s.Logger, s.Metrics))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimit).Post("/signup", s.SignUp)
			auth.With(authLimit).Post("/signin", s.SignIn)
			auth.With(authLimit).Post("/refresh", s.Refresh)
			auth.With(s.WithAuth).Post("/signout", s.SignOut)
			auth.With(s.WithAuth).Get("/user", s.CurrentIdentity)
		})

		api.Group(func(private chi.Router) {
			private.Use(s.WithAuth)

			private.Post("/profiles", s.CreateProfile)
			private.Get("/profiles/{id}", s.GetProfile)
			private.Patch("/profiles/{id}", s.UpdateProfile)

			private.Post("/media/uploads/{bucket}", s.Upload)
			private.Get("/media/assets/{assetId}/content", s.MediaContent)

			private.Route("/sos/alerts", func(alerts chi.Router) {
				alerts.Get("/", s.ListAlerts)
				alerts.Post("/", s.CreateAlert)
				alerts.Post("/{id}/resolve", s.ResolveAlert)
				alerts.Get("/{id}/notifications", s.ListNotifications)
				alerts.Post("/{id}/notifications", s.CreateNotification)
			})

			private.Route("/incidents", func(incidents chi.Router) {
				incidents.Get("/", s.ListIncidents)
				incidents.Post("/", s.CreateIncident)
				incidents.Post("/{id}/evidence", s.UploadEvidence)
			})

			private.Route("/forum", func(forum chi.Router) {
				forum.Get("/posts", s.ListPosts)
				forum.Post("/posts", s.CreatePost)
				forum.Delete("/posts/{id}", s.DeletePost)
				forum.Post("/posts/{id}/upvote", s.UpvotePost)
				forum.Get("/posts/{id}/comments", s.ListComments)
				forum.Post("/posts/{id}/comments", s.CreateComment)
				forum.Delete("/comments/{id}", s.DeleteComment)
			})

			private.Get("/resources", s.ListResources)
			private.Get("/resources/categories", s.ResourceCategories)

			private.Route("/admin", func(admin chi.Router) {
				admin.Use(s.RequireRole(models.RoleAdmin))
				admin.Get("/incidents", s.AdminListIncidents)
				admin.Put("/incidents/{id}/status", s.AdminSetIncidentStatus)
				admin.Get("/users", s.ListUsers)
				admin.Put("/users/{id}/role", s.SetUserRole)
				admin.Post("/resources", s.CreateResource)
				admin.Put("/resources/{id}", s.UpdateResource)
				admin.Delete("/resources/{id}", s.DeleteResource)
				admin.Get("/health", s.Health)
			})
		})
	})

	r.Get("/ws/session", s.SessionSocket)
	r.Get("/ws/admin/alerts", s.AlertSocket)
	r.Handle("/metrics", s.Metrics.Handler())
	return r, nil
}
