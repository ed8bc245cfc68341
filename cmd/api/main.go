package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"talehub/cmd/app"
	"talehub/internal/config"
	handlers "talehub/internal/handler"
	"talehub/internal/middleware"
	"talehub/internal/models"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.JWTSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	db, repo, services, _ := app.App(cfg)
	defer db.CloseDB()

	handler := handlers.NewHandlers(repo, services, cfg)

	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// auth
	api.HandleFunc("/auth/register", handler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", handler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", handler.RefreshToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", handler.RequestPasswordReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password/confirm", handler.ResetPassword).Methods(http.MethodPost)

	// profile
	api.HandleFunc("/me", handler.GetCurrentProfile).Methods(http.MethodGet)
	api.HandleFunc("/me", handler.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/me/password", handler.UpdatePassword).Methods(http.MethodPut)

	// feed and stories
	api.HandleFunc("/feed", handler.GetFeed).Methods(http.MethodGet)
	api.HandleFunc("/stories", handler.CreateStory).Methods(http.MethodPost)
	api.HandleFunc("/stories/audio", handler.CreateAudioStory).Methods(http.MethodPost)
	api.HandleFunc("/stories/mine", handler.GetMyStories).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}", handler.GetStory).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}", handler.DeleteStory).Methods(http.MethodDelete)

	// engagement
	api.HandleFunc("/stories/{id}/read", handler.TrackRead).Methods(http.MethodPost)
	api.HandleFunc("/stories/{id}/review", handler.SubmitReview).Methods(http.MethodPost)
	api.HandleFunc("/stories/{id}/review", handler.GetUserReview).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}/stats", handler.GetStoryStats).Methods(http.MethodGet)

	// moderation
	api.HandleFunc("/moderation/pending", handler.GetPendingStories).Methods(http.MethodGet)
	api.HandleFunc("/moderation/stories/{id}", handler.ModerateStory).Methods(http.MethodPost)
	api.HandleFunc("/moderation/activity/{id}", handler.GetModeratorActivity).Methods(http.MethodGet)

	// storytellers and reference data
	api.HandleFunc("/storytellers", handler.GetStorytellers).Methods(http.MethodGet)
	api.HandleFunc("/storytellers/{id}", handler.GetStoryteller).Methods(http.MethodGet)
	api.HandleFunc("/localities", handler.GetLocalities).Methods(http.MethodGet)
	api.HandleFunc("/genres", handler.GetGenres).Methods(http.MethodGet)

	// admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RoleMiddleware(models.RoleAdmin))
	admin.HandleFunc("/users", handler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", handler.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/block", handler.SetUserBlocked).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", handler.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{id}/moderator", handler.SetModerator).Methods(http.MethodPost)
	admin.HandleFunc("/moderators", handler.ListModerators).Methods(http.MethodGet)
	admin.HandleFunc("/localities", handler.CreateLocality).Methods(http.MethodPost)
	admin.HandleFunc("/roles", handler.GetRoles).Methods(http.MethodGet)

	handlerChain := middleware.Chain(
		router,
		middleware.AuthMiddleware(cfg),
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	log.Printf("Server listening on %s", addr)

	if err := http.ListenAndServe(addr, handlerChain); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
