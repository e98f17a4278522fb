package notification

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	page := infrastructure.QueryInt(r, "page", 0)
	size := infrastructure.QueryInt(r, "size", 20)
	ns, total, err := h.service.List(r.Context(), caller.ID, page, size)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": ns,
		"total":         total,
		"page":          page,
	})
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	id, err := infrastructure.PathUint(r, "notificationID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.MarkAsRead(r.Context(), id, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	id, err := infrastructure.PathUint(r, "notificationID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAll(r.Context(), caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]int64{"unread": n})
}
