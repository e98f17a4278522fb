package invitation

import (
	"net/http"

	"parley/infrastructure"
	"parley/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	var req struct {
		ChatID     uint `json:"chatId"`
		ReceiverID uint `json:"receiverId"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	inv, err := h.service.Send(r.Context(), req.ChatID, caller.ID, req.ReceiverID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	id, err := infrastructure.PathUint(r, "invitationID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.Accept(r.Context(), id, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	id, err := infrastructure.PathUint(r, "invitationID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.Reject(r.Context(), id, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	invs, err := h.service.ListPending(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, invs)
}
