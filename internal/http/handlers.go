package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
)

type userResponse struct {
	ID          string             `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	FullName    string             `json:"fullName"`
	Avatar      *string            `json:"avatar"`
	Preferences models.Preferences `json:"preferences"`
	Role        string             `json:"role"`
	IsActive    bool               `json:"isActive"`
	LastLogin   *time.Time         `json:"lastLogin"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Avatar:      u.Avatar,
		Preferences: u.Preferences,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

type authResponse struct {
	Message string         `json:"message"`
	User    userResponse   `json:"user"`
	Tokens  service.Tokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Storage   string    `json:"storage,omitempty"`
	LLM       string    `json:"llm,omitempty"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Storage:   a.Storage,
		LLM:       a.LLMBackend,
	})
}

// userID is only called behind authMiddleware.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := a.Service.Register(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    newUserResponse(res.User),
		Tokens:  res.Tokens,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := a.Service.Login(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    newUserResponse(res.User),
		Tokens:  res.Tokens,
	})
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	access, err := a.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	resp := newUserResponse(u)
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: &resp})
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := a.Service.Profile(r.Context(), userID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(u)})
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.Service.UpdateProfile(r.Context(), userID(r), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    newUserResponse(u),
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.Service.ChangePassword(r.Context(), userID(r), req); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// handleLogout has nothing to revoke; tokens are stateless and the client drops them.
func (a *API) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (a *API) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.Deactivate(r.Context(), userID(r)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account deactivated successfully"})
}

// parseFlexTime accepts a calendar date or an RFC3339 timestamp.
func parseFlexTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("Validation failed",
		apperr.FieldError{Field: field, Message: field + " must be a valid date"})
}
