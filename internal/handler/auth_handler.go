package handlers

import (
	"encoding/json"
	"net/http"

	"talehub/internal/models"
	"talehub/internal/service"
)

type AuthResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Profile      models.Profile `json:"profile"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Invalid registration data: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, accessToken, refreshToken, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      *profile,
	}, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	profile, accessToken, refreshToken, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	WriteSuccess(w, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      *profile,
	}, http.StatusOK)
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		WriteError(w, "refreshToken is required", http.StatusBadRequest)
		return
	}

	profile, accessToken, refreshToken, err := h.AuthService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, "Refresh token is invalid or expired", http.StatusUnauthorized)
		return
	}

	WriteSuccess(w, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      *profile,
	}, http.StatusOK)
}

func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "A valid email is required", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	// Same response whether or not the email has an account.
	WriteSuccess(w, map[string]string{"status": "reset requested"}, http.StatusOK)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Token and a new password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "password updated"}, http.StatusOK)
}

func (h *Handlers) GetCurrentProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	profile, err := h.AuthService.CurrentProfile(r.Context(), profileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, profile, http.StatusOK)
}

// UpdateProfile accepts multipart form data so the profile image and
// storyteller photo can ride along with the text fields.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		WriteError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	req := service.UpdateProfileRequest{ProfileID: profileID}

	if v := r.FormValue("fullName"); v != "" {
		req.FullName = &v
	}
	if v := r.FormValue("storytellerName"); v != "" {
		req.StorytellerName = &v
	}
	if v := r.FormValue("storytellerBio"); v != "" {
		req.StorytellerBio = &v
	}

	if file, header, err := r.FormFile("profileImage"); err == nil {
		defer file.Close()
		req.ProfileImage = file
		req.ProfileImageName = header.Filename
		req.ProfileImageSize = header.Size
	}

	if file, header, err := r.FormFile("storytellerPhoto"); err == nil {
		defer file.Close()
		req.StorytellerPhoto = file
		req.StorytellerPhotoName = header.Filename
		req.StorytellerPhotoSize = header.Size
	}

	profile, err := h.AuthService.UpdateProfile(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, profile, http.StatusOK)
}

func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	profileID, ok := r.Context().Value("profileID").(string)
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Both passwords are required, new password at least 8 characters", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.UpdatePassword(r.Context(), profileID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"status": "password updated"}, http.StatusOK)
}
