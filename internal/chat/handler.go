package chat

import (
	"context"
	"net/http"

	"parley/infrastructure"
	"parley/internal/user"
)

type Handler struct {
	service *Service
	roster  *Roster
}

func NewHandler(service *Service, roster *Roster) *Handler {
	return &Handler{service: service, roster: roster}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Type           Type   `json:"type"`
		Name           string `json:"name"`
		ParticipantIDs []uint `json:"participantIds"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), caller.ID, CreateInput{
		Type:           req.Type,
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	page := infrastructure.QueryInt(r, "page", 0)
	size := infrastructure.QueryInt(r, "size", 20)
	chats, total, err := h.service.List(r.Context(), caller.ID, page, size)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{
		"chats": chats,
		"total": total,
		"page":  page,
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		infrastructure.WriteError(w, infrastructure.Validation("query parameter \"name\" is required"))
		return
	}
	chats, err := h.service.SearchByName(r.Context(), caller.ID, name)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, chats)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), chatID, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.Leave(r.Context(), chatID, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	h.rosterOp(w, r, h.roster.Add, http.StatusCreated)
}

func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	h.rosterOp(w, r, h.roster.Remove, http.StatusNoContent)
}

func (h *Handler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	h.rosterOp(w, r, h.roster.ToggleRole, http.StatusNoContent)
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	participants, err := h.roster.List(r.Context(), chatID, caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, participants)
}

func (h *Handler) rosterOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, chatID, callerID, userID uint) error, status int) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	userID, err := infrastructure.PathUint(r, "userID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := op(r.Context(), chatID, caller.ID, userID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(status)
}
