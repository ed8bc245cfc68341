package service

import (
	"context"
	"fmt"
	"log"

	"talehub/internal/eventbus"
	"talehub/internal/models"
	"talehub/internal/repository"
)

// ModeratorSummary pairs a moderator with their review activity.
type ModeratorSummary struct {
	Profile models.Profile        `json:"profile"`
	Stats   models.ModeratorStats `json:"stats"`
}

type AdminService interface {
	ListUsers(ctx context.Context, actorID string) ([]models.Profile, error)
	GetUser(ctx context.Context, actorID, targetID string) (*models.Profile, error)
	SearchUsers(ctx context.Context, actorID, term string) ([]models.Profile, error)
	SetUserBlocked(ctx context.Context, actorID, targetID string, blocked bool, reason *string) error
	DeleteUser(ctx context.Context, actorID, targetID string, reason *string) error
	SetModerator(ctx context.Context, actorID, targetID string, moderator bool) error
	ListModerators(ctx context.Context, actorID string) ([]ModeratorSummary, error)
}

type adminService struct {
	profileRepo  repository.ProfileRepository
	roleRepo     repository.RoleRepository
	storyRepo    repository.StoryRepository
	adminLogRepo repository.AdminLogRepository
	bus          *eventbus.Bus
}

func NewAdminService(profileRepo repository.ProfileRepository, roleRepo repository.RoleRepository, storyRepo repository.StoryRepository, adminLogRepo repository.AdminLogRepository, bus *eventbus.Bus) AdminService {
	return &adminService{
		profileRepo:  profileRepo,
		roleRepo:     roleRepo,
		storyRepo:    storyRepo,
		adminLogRepo: adminLogRepo,
		bus:          bus,
	}
}

func (s *adminService) ListUsers(ctx context.Context, actorID string) ([]models.Profile, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.profileRepo.ListAll(ctx)
}

func (s *adminService) GetUser(ctx context.Context, actorID, targetID string) (*models.Profile, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, targetID)
}

func (s *adminService) SearchUsers(ctx context.Context, actorID, term string) ([]models.Profile, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if term == "" {
		return s.profileRepo.ListAll(ctx)
	}
	return s.profileRepo.Search(ctx, term)
}

// SetUserBlocked blocks or unblocks an account. Blocked accounts keep
// their published stories but cannot submit new ones.
func (s *adminService) SetUserBlocked(ctx context.Context, actorID, targetID string, blocked bool, reason *string) error {
	admin, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		return fmt.Errorf("admins cannot block themselves: %w", ErrValidation)
	}

	target, err := s.profileRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.profileRepo.SetBlocked(ctx, targetID, blocked); err != nil {
		return err
	}

	action := "user_blocked"
	eventType := eventbus.UserBlocked
	if !blocked {
		action = "user_unblocked"
		eventType = eventbus.UserUnblocked
	}
	if target.IsStoryteller {
		if blocked {
			eventType = eventbus.StorytellerBlocked
		} else {
			eventType = eventbus.StorytellerUnblocked
		}
	}

	s.logAction(ctx, admin.ProfileID, action, targetID, reason)

	s.bus.Publish(eventbus.Event{
		Type: eventType,
		Payload: map[string]string{
			"profileId": targetID,
			"adminId":   admin.ProfileID,
		},
	})

	return nil
}

// DeleteUser soft-deletes an account together with all of its stories.
// Rows stay in place with deletion stamps; nothing is physically erased.
func (s *adminService) DeleteUser(ctx context.Context, actorID, targetID string, reason *string) error {
	admin, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		return fmt.Errorf("admins cannot delete themselves: %w", ErrValidation)
	}

	if _, err := s.profileRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.profileRepo.SoftDelete(ctx, targetID, admin.ProfileID); err != nil {
		return err
	}

	if err := s.storyRepo.SoftDeleteByAuthor(ctx, targetID, admin.ProfileID); err != nil {
		return fmt.Errorf("failed to delete user stories: %w", err)
	}

	s.logAction(ctx, admin.ProfileID, "user_deleted", targetID, reason)

	return nil
}

// SetModerator grants or revokes the moderator role.
func (s *adminService) SetModerator(ctx context.Context, actorID, targetID string, moderator bool) error {
	admin, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	if _, err := s.profileRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	roleName := models.RoleUser
	if moderator {
		roleName = models.RoleModerator
	}
	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to resolve role %s: %w", roleName, err)
	}

	if err := s.profileRepo.SetModerator(ctx, targetID, moderator); err != nil {
		return err
	}
	if err := s.profileRepo.UpdateRoleID(ctx, targetID, role.RoleID); err != nil {
		return err
	}

	action := "moderator_added"
	eventType := eventbus.ModeratorAdded
	if !moderator {
		action = "moderator_removed"
		eventType = eventbus.ModeratorRemoved
	}

	s.logAction(ctx, admin.ProfileID, action, targetID, nil)

	s.bus.Publish(eventbus.Event{
		Type: eventType,
		Payload: map[string]string{
			"profileId": targetID,
			"adminId":   admin.ProfileID,
		},
	})

	return nil
}

// ListModerators returns every moderator together with how many
// stories they have reviewed, the approve/reject split and their most
// recent decision.
func (s *adminService) ListModerators(ctx context.Context, actorID string) ([]ModeratorSummary, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	moderators, err := s.profileRepo.ListModerators(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(moderators))
	for i := range moderators {
		ids[i] = moderators[i].ProfileID
	}

	stats, err := s.storyRepo.GetModeratorStatsBulk(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ModeratorSummary, len(moderators))
	for i, m := range moderators {
		summaries[i] = ModeratorSummary{Profile: m, Stats: stats[m.ProfileID]}
	}

	return summaries, nil
}

func (s *adminService) requireAdmin(ctx context.Context, actorID string) (*models.Profile, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, fmt.Errorf("admin role required: %w", ErrUnauthorized)
	}
	return actor, nil
}

// logAction writes an audit entry. Audit failures are logged and
// swallowed so the admin action itself still completes.
func (s *adminService) logAction(ctx context.Context, adminID, action, targetID string, reason *string) {
	entry := &models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetID,
		Reason:       reason,
	}
	if err := s.adminLogRepo.Create(ctx, entry); err != nil {
		log.Printf("Warning: failed to write admin log for %s: %v", action, err)
	}
}
