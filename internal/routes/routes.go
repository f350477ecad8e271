package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"

	"github.com/evn/appgate/config"
	adminHandlers "github.com/evn/appgate/internal/handlers/admin"
	authHandlers "github.com/evn/appgate/internal/handlers/auth"
	versionHandlers "github.com/evn/appgate/internal/handlers/version"
	"github.com/evn/appgate/internal/hub"
	"github.com/evn/appgate/internal/middleware"
	"github.com/evn/appgate/internal/pkg/response"
	"github.com/evn/appgate/internal/repositories"
	authService "github.com/evn/appgate/internal/services/auth"
	"github.com/evn/appgate/internal/services/gates"
	"github.com/evn/appgate/internal/services/notify"
)

// Setup wires the repositories, services and handlers and returns the
// configured router.
func Setup(cfg *config.Config, database *sql.DB, redisClient *redis.Client, eventHub *hub.Hub) *chi.Mux {
	jwtAuth := jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)
	jwtService := authService.NewJWTService(cfg.JwtSecret, redisClient)

	userRepo := repositories.NewUserRepository(database)
	gateRepo := repositories.NewVersionGateRepository(database)
	gateService := gates.NewService(gateRepo, redisClient, cfg.GateCacheTTL)
	notifier := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)

	versionHandler := versionHandlers.NewHandler(gateService, eventHub)
	authHandler := authHandlers.NewHandler(userRepo, jwtService)
	gateHandler := adminHandlers.NewGateHandler(gateService, notifier, cfg.GoogleCredentialsFile)
	userHandler := adminHandlers.NewUserHandler(userRepo)

	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(jwtauth.Verifier(jwtAuth))
	router.Use(middleware.AddUserIDToContext())

	// Public routes. Version checks come from apps in the field, long
	// before anyone logs in.
	router.Post("/api/v1/version/check", versionHandler.CheckHandler)
	router.Get("/api/v1/version/gate", versionHandler.GateHandler)
	router.Get("/api/v1/version/stream", versionHandler.StreamHandler)
	router.Post("/api/auth/login", authHandler.LoginHandler)
	router.Post("/api/auth/refresh", authHandler.RefreshHandler)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"stream_clients": eventHub.ClientCount(),
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(jwtAuth))

		r.Post("/api/logout", authHandler.LogoutHandler)

		r.Get("/api/admin/gates", gateHandler.ListHandler)
		r.Get("/api/admin/gates/{platform}", gateHandler.GetHandler)
		r.Put("/api/admin/gates/{platform}", gateHandler.UpsertHandler)
		r.Delete("/api/admin/gates/{platform}", gateHandler.DeleteHandler)
		r.Post("/api/admin/gates/import", gateHandler.ImportHandler)
		r.Get("/api/admin/gates/audit", gateHandler.AuditHandler)

		// Superadmin-only
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.SuperadminOnly())
			sr.Get("/api/admin/users", userHandler.ListHandler)
			sr.Post("/api/admin/users", userHandler.CreateHandler)
		})
	})

	return router
}
