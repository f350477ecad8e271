package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/evn/appgate/config"
	"github.com/evn/appgate/db"
	"github.com/evn/appgate/internal/hub"
	"github.com/evn/appgate/internal/repositories"
	"github.com/evn/appgate/internal/routes"
	authService "github.com/evn/appgate/internal/services/auth"
	"github.com/evn/appgate/internal/services/gates"
)

func main() {
	cfg := config.NewConfig()
	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient()
	defer redisClient.Close()

	if cfg.AdminPassword != "" {
		hash, err := authService.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		userRepo := repositories.NewUserRepository(database)
		if err := userRepo.EnsureSuperadmin(cfg.AdminUsername, hash); err != nil {
			log.Fatalf("Failed to seed superadmin: %v", err)
		}
		log.Printf("Superadmin account %q is ready", cfg.AdminUsername)
	}

	eventHub := hub.NewHub()

	// Gate changes fan out over redis pub/sub, so clients streaming from
	// this instance also see edits made through any other instance.
	gateService := gates.NewService(repositories.NewVersionGateRepository(database), redisClient, cfg.GateCacheTTL)
	go bridgeGateEvents(context.Background(), gateService, eventHub)

	router := routes.Setup(cfg, database, redisClient, eventHub)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("🚀 Server starting on %s", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, router))
}

func bridgeGateEvents(ctx context.Context, gateService *gates.Service, eventHub *hub.Hub) {
	events := gateService.Subscribe(ctx)
	if events == nil {
		return
	}
	for event := range events {
		eventHub.Broadcast(event)
	}
}
