package auth

import (
	"net/http"

	"parley/infrastructure"
	"parley/internal/user"
	"parley/pkg/jwt"
)

type Handler struct {
	users *user.Service
	jwt   *jwt.JWT
}

func NewHandler(users *user.Service, j *jwt.JWT) *Handler {
	return &Handler{users: users, jwt: j}
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) issueTokens(userID uint) (tokenPair, error) {
	access, err := h.jwt.GenerateAccessToken(userID)
	if err != nil {
		return tokenPair{}, infrastructure.Internal(err, "issuing access token")
	}
	refresh, err := h.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return tokenPair{}, infrastructure.Internal(err, "issuing refresh token")
	}
	return tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		PhoneNo  string `json:"phoneNo"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		PhoneNo:  req.PhoneNo,
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	tokens, err := h.issueTokens(u.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":   u.Summary(),
		"tokens": tokens,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if u.Status != user.StatusActive {
		infrastructure.WriteError(w, infrastructure.Unauthorized("account is deactivated"))
		return
	}

	tokens, err := h.issueTokens(u.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{
		"user":   u.Summary(),
		"tokens": tokens,
	})
}

// Activate reinstates a deactivated account. It authenticates with
// credentials instead of a token because the access middleware only
// admits ACTIVE users.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.users.Activate(r.Context(), u.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	tokens, err := h.issueTokens(u.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken)
	if err != nil || !claims.Refresh {
		infrastructure.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}

	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if u.Status != user.StatusActive {
		infrastructure.WriteError(w, infrastructure.Unauthorized("account is deactivated"))
		return
	}

	tokens, err := h.issueTokens(u.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}
