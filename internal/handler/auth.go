package handler

import (
	"net/http"

	"github.com/smartstudy/smartstudy/internal/ctxkeys"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/smartstudy/smartstudy/internal/respond"
	"github.com/smartstudy/smartstudy/internal/service"
	"github.com/smartstudy/smartstudy/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  model.LoginUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.authService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, tokenResponse{Token: result.Token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.authService.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, loginResponse{Token: result.Token, User: result.LoginUser()})
}

// User handles GET /api/auth/user
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, user)
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update model.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), ctxkeys.UserID(r.Context()), update)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, user)
}

// UploadAvatar handles PUT /api/auth/avatar
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	file, err := readFormFile(w, r, "file", validation.ImageConstraints.MaxSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), ctxkeys.UserID(r.Context()), file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, user)
}

// ToggleSave handles PUT /api/auth/save/{resourceId}
func (h *AuthHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	saved, err := h.userService.ToggleSave(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("resourceId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, saved)
}
