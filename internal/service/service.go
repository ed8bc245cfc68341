package service

import (
	"talehub/internal/config"
	"talehub/internal/eventbus"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

type Service struct {
	Auth        AuthService
	Story       StoryService
	Feed        FeedService
	Moderation  ModerationService
	Engagement  EngagementService
	Admin       AdminService
	Storyteller StorytellerService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, bus *eventbus.Bus) *Service {
	return &Service{
		Auth:        NewAuthService(rep.Profile, rep.Role, storage, cfg, bus),
		Story:       NewStoryService(rep.Story, rep.Media, rep.Profile, rep.Locality, storage, cfg, bus),
		Feed:        NewFeedService(rep.Story, rep.Locality, storage, cfg),
		Moderation:  NewModerationService(rep.Story, rep.Profile, bus),
		Engagement:  NewEngagementService(rep.Engagement, rep.Story),
		Admin:       NewAdminService(rep.Profile, rep.Role, rep.Story, rep.AdminLog, bus),
		Storyteller: NewStorytellerService(rep.Profile, rep.Story, storage, cfg),
	}
}
