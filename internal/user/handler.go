package user

import (
	"net/http"

	"parley/infrastructure"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, caller)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Name    *string `json:"name"`
		PhoneNo *string `json:"phoneNo"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	u, err := h.service.Update(r.Context(), caller.ID, UpdateInput{Name: req.Name, PhoneNo: req.PhoneNo})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleOnlineStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	status, err := h.service.ToggleOnlineStatus(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"onlineStatus": status})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := infrastructure.PathUint(r, "id")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u.Summary())
}

func (h *Handler) TouchLastSeen(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	if err := h.service.TouchLastSeen(r.Context(), caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LastSeen(w http.ResponseWriter, r *http.Request) {
	id, err := infrastructure.PathUint(r, "id")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	ts, err := h.service.LastSeen(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"lastSeen": ts})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		infrastructure.WriteError(w, infrastructure.Validation("query parameter \"name\" is required"))
		return
	}
	users, err := h.service.Search(r.Context(), name)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(w, r)
	if !ok {
		return
	}
	users, err := h.service.ListAll(r.Context(), caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, users)
}
