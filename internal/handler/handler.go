package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"talehub/internal/config"
	"talehub/internal/repository"
	"talehub/internal/service"
)

type Handlers struct {
	AuthService        service.AuthService
	StoryService       service.StoryService
	FeedService        service.FeedService
	ModerationService  service.ModerationService
	EngagementService  service.EngagementService
	AdminService       service.AdminService
	StorytellerService service.StorytellerService
	LocalityRepo       repository.LocalityRepository
	RoleRepo           repository.RoleRepository
	Cfg                *config.Config
	Validate           *validator.Validate
}

func NewHandlers(repo *repository.Repository, services *service.Service, cfg *config.Config) *Handlers {
	return &Handlers{
		AuthService:        services.Auth,
		StoryService:       services.Story,
		FeedService:        services.Feed,
		ModerationService:  services.Moderation,
		EngagementService:  services.Engagement,
		AdminService:       services.Admin,
		StorytellerService: services.Storyteller,
		LocalityRepo:       repo.Locality,
		RoleRepo:           repo.Role,
		Cfg:                cfg,
		Validate:           validator.New(),
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}
