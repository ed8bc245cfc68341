package app

import (
	"log"

	"talehub/internal/config"
	"talehub/internal/database"
	"talehub/internal/eventbus"
	"talehub/internal/repository"
	"talehub/internal/service"
	"talehub/internal/storage"
)

// App wires the database, object storage, repositories, services and
// the event bus together.
func App(cfg *config.Config) (*database.DB, *repository.Repository, *service.Service, *eventbus.Bus) {
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	bus := eventbus.New()

	repo := repository.NewRepository(db.DB)

	services := service.NewService(repo, cfg, minioClient, bus)

	// Moderation and admin actions are logged as they happen; more
	// subscribers (notifications, cache invalidation) hook in here.
	bus.SubscribeAll(func(event eventbus.Event) {
		log.Printf("event %s: %v", event.Type, event.Payload)
	})

	return db, repo, services, bus
}
