package friendship

import (
	"context"
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

func (h *Handler) SendRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	targetID, err := infrastructure.PathUint(r, "userID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	f, err := h.service.SendRequest(r.Context(), caller.ID, targetID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Accept)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Cancel)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Remove)
}

func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Block)
}

func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Unblock)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	peerID, err := infrastructure.PathUint(r, "userID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	status, err := h.service.StatusBetween(r.Context(), caller.ID, peerID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]Status{"status": status})
}

func (h *Handler) ListAccepted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAccepted)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	pending, err := h.service.ListPending(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, pending)
}

func (h *Handler) ListSent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListSent)
}

func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListBlocked)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, callerID, peerID uint) error) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	peerID, err := infrastructure.PathUint(r, "userID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := op(r.Context(), caller.ID, peerID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, callerID uint) ([]user.Summary, error)) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	peers, err := op(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, peers)
}
