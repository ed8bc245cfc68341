package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"talehub/internal/config"
	"talehub/internal/eventbus"
	"talehub/internal/models"
	"talehub/internal/repository"
	"talehub/internal/storage"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
}

type UpdateProfileRequest struct {
	ProfileID            string
	FullName             *string
	StorytellerName      *string
	StorytellerBio       *string
	ProfileImage         io.Reader
	ProfileImageName     string
	ProfileImageSize     int64
	StorytellerPhoto     io.Reader
	StorytellerPhotoName string
	StorytellerPhotoSize int64
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.Profile, string, string, error)
	Login(ctx context.Context, email, password string) (*models.Profile, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.Profile, string, string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	GetProfileFromToken(tokenString string) (*models.Profile, error)
	CurrentProfile(ctx context.Context, profileID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.Profile, error)
	UpdatePassword(ctx context.Context, profileID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	profileRepo repository.ProfileRepository
	roleRepo    repository.RoleRepository
	storage     storage.Storage
	cfg         *config.Config
	bus         *eventbus.Bus

	// profileGroup coalesces concurrent loads of the same profile so a
	// burst of requests produces a single database query.
	profileGroup singleflight.Group
}

func NewAuthService(profileRepo repository.ProfileRepository, roleRepo repository.RoleRepository, storage storage.Storage, cfg *config.Config, bus *eventbus.Bus) AuthService {
	return &authService{
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		storage:     storage,
		cfg:         cfg,
		bus:         bus,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.Profile, string, string, error) {
	existing, err := s.profileRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, "", "", fmt.Errorf("profile with email %s already exists: %w", req.Email, ErrValidation)
	}

	role, err := s.roleRepo.GetByName(ctx, models.RoleUser)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to resolve default role: %w", err)
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()

	profile := &models.Profile{
		Email:                  req.Email,
		FullName:               req.FullName,
		RoleID:                 role.RoleID,
		RoleName:               role.Name,
		RefreshToken:           &refreshToken,
		RefreshTokenExpiryTime: &refreshTokenExpiry,
	}

	err = s.profileRepo.Create(ctx, profile, req.Password)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create profile: %w", err)
	}

	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, "", "", err
	}

	return profile, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.Profile, string, string, error) {
	profile, err := s.profileRepo.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, "", "", fmt.Errorf("authentication failed: %w", ErrUnauthenticated)
	}

	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, "", "", err
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()

	err = s.profileRepo.UpdateRefreshToken(ctx, profile.ProfileID, refreshToken, refreshTokenExpiry)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.profileRepo.UpdateLastLogin(ctx, profile.ProfileID); err != nil {
		// Last-login is informational; a failed update must not block login.
		log.Printf("Warning: failed to update last login for %s: %v", profile.ProfileID, err)
	}

	return profile, accessToken, refreshToken, nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.Profile, string, string, error) {
	profile, err := s.profileRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid refresh token: %w", ErrUnauthenticated)
	}

	if profile.RefreshTokenExpiryTime == nil || profile.RefreshTokenExpiryTime.Before(time.Now()) {
		return nil, "", "", fmt.Errorf("refresh token expired: %w", ErrUnauthenticated)
	}

	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, "", "", err
	}

	newRefreshToken, refreshTokenExpiry := s.generateRefreshToken()

	err = s.profileRepo.UpdateRefreshToken(ctx, profile.ProfileID, newRefreshToken, refreshTokenExpiry)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return profile, accessToken, newRefreshToken, nil
}

func (s *authService) generateAccessToken(profile *models.Profile) (string, error) {
	claims := jwt.MapClaims{
		"profileId": profile.ProfileID,
		"email":     profile.Email,
		"role":      profile.RoleName,
		"exp":       time.Now().Add(s.cfg.AccessTokenDuration).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *authService) generateRefreshToken() (string, time.Time) {
	return uuid.New().String(), time.Now().Add(s.cfg.RefreshTokenDuration)
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	return token, nil
}

func (s *authService) GetProfileFromToken(tokenString string) (*models.Profile, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims format: %w", ErrUnauthenticated)
	}

	profileID, _ := claims["profileId"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if profileID == "" {
		return nil, fmt.Errorf("token missing profile id: %w", ErrUnauthenticated)
	}

	return &models.Profile{
		ProfileID: profileID,
		Email:     email,
		RoleName:  role,
	}, nil
}

// CurrentProfile loads the full profile row for the given id. Concurrent
// calls for the same id share one lookup.
func (s *authService) CurrentProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	result, err, _ := s.profileGroup.Do(profileID, func() (interface{}, error) {
		return s.profileRepo.GetByID(ctx, profileID)
	})
	if err != nil {
		return nil, err
	}

	// Copy before resolving: the singleflight result is shared between
	// coalesced callers.
	profile := *result.(*models.Profile)
	s.resolveProfileURLs(&profile)
	return &profile, nil
}

func (s *authService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.StorytellerName != nil {
		profile.StorytellerName = req.StorytellerName
	}
	if req.StorytellerBio != nil {
		profile.StorytellerBio = req.StorytellerBio
	}

	if req.ProfileImage != nil {
		_, imageURL, err := s.storage.Upload(ctx, s.cfg.Buckets.ProfileImages, profile.ProfileID, req.ProfileImageName, req.ProfileImage, req.ProfileImageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to upload profile image: %w", err)
		}
		profile.ProfileImageURL = &imageURL
	}

	if req.StorytellerPhoto != nil {
		_, photoURL, err := s.storage.Upload(ctx, s.cfg.Buckets.ProfileImages, profile.ProfileID, req.StorytellerPhotoName, req.StorytellerPhoto, req.StorytellerPhotoSize)
		if err != nil {
			return nil, fmt.Errorf("failed to upload storyteller photo: %w", err)
		}
		profile.StorytellerPhotoURL = &photoURL
	}

	err = s.profileRepo.UpdateProfile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.bus.Publish(eventbus.Event{
		Type:    eventbus.ProfileUpdated,
		Payload: map[string]string{"profileId": profile.ProfileID},
	})

	s.resolveProfileURLs(profile)
	return profile, nil
}

func (s *authService) UpdatePassword(ctx context.Context, profileID, currentPassword, newPassword string) error {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return err
	}

	if _, err := s.profileRepo.VerifyPassword(ctx, profile.Email, currentPassword); err != nil {
		return fmt.Errorf("current password is incorrect: %w", ErrUnauthenticated)
	}

	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.profileRepo.UpdatePassword(ctx, profileID, string(hash))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// RequestPasswordReset issues a one-time reset token for the account.
// Unknown emails are treated as success so the endpoint does not reveal
// which addresses have accounts; token delivery happens through the
// PasswordResetRequested event.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.New().String()
	expiry := time.Now().Add(s.cfg.ResetTokenDuration)

	if err := s.profileRepo.SetResetToken(ctx, profile.ProfileID, token, expiry); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.bus.Publish(eventbus.Event{
		Type: eventbus.PasswordResetRequested,
		Payload: map[string]string{
			"profileId":  profile.ProfileID,
			"email":      profile.Email,
			"resetToken": token,
		},
	})

	return nil
}

// ResetPassword consumes a reset token and writes the new password. The
// token is single-use: it is cleared once the password is updated.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", ErrValidation)
	}

	profile, err := s.profileRepo.GetByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", ErrUnauthenticated)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.profileRepo.UpdatePassword(ctx, profile.ProfileID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.profileRepo.ClearResetToken(ctx, profile.ProfileID); err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return nil
}

func (s *authService) resolveProfileURLs(profile *models.Profile) {
	if profile.ProfileImageURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.ProfileImages, *profile.ProfileImageURL)
		profile.ProfileImageURL = &resolved
	}
	if profile.StorytellerPhotoURL != nil {
		resolved := s.storage.ResolveURL(s.cfg.Buckets.ProfileImages, *profile.StorytellerPhotoURL)
		profile.StorytellerPhotoURL = &resolved
	}
}
