package message

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	var req struct {
		Type        Type   `json:"type"`
		Content     string `json:"content"`
		Attachments []struct {
			FileName    string `json:"fileName"`
			ContentType string `json:"contentType"`
			Size        int64  `json:"size"`
		} `json:"attachments"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	in := CreateInput{ChatID: chatID, Type: req.Type, Content: req.Content}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, AttachmentInput{
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	m, err := h.service.Create(r.Context(), caller.ID, in)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	page := infrastructure.QueryInt(r, "page", 0)
	size := infrastructure.QueryInt(r, "size", 20)
	msgs, total, err := h.service.ListVisible(r.Context(), chatID, caller.ID, page, size)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"total":    total,
		"page":     page,
	})
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.messageOp(w, r, h.service.MarkDelivered)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.messageOp(w, r, h.service.MarkRead)
}

func (h *Handler) DeleteForMe(w http.ResponseWriter, r *http.Request) {
	h.messageOp(w, r, h.service.DeleteForMe)
}

func (h *Handler) DeleteForEveryone(w http.ResponseWriter, r *http.Request) {
	h.messageOp(w, r, h.service.DeleteForEveryone)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	messageID, err := infrastructure.PathUint(r, "messageID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	n, err := h.service.UnreadCount(r.Context(), messageID, caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

func (h *Handler) Readers(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	messageID, err := infrastructure.PathUint(r, "messageID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	reads, err := h.service.ReadersOf(r.Context(), messageID, caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, reads)
}

func (h *Handler) DeleteAllForMe(w http.ResponseWriter, r *http.Request) {
	h.chatOp(w, r, h.service.DeleteAllForMe)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.chatOp(w, r, h.service.MarkAllReadInChat)
}

func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	messageID, err := infrastructure.PathUint(r, "messageID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	var req struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	a, err := h.service.AddAttachment(r.Context(), messageID, caller.ID, AttachmentInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	attachmentID, err := infrastructure.PathUint(r, "attachmentID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := h.service.RemoveAttachment(r.Context(), attachmentID, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	attachmentID, err := infrastructure.PathUint(r, "attachmentID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	a, err := h.service.GetAttachment(r.Context(), attachmentID, caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	messageID, err := infrastructure.PathUint(r, "messageID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	atts, err := h.service.ListAttachments(r.Context(), messageID, caller.ID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, atts)
}

func (h *Handler) messageOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, messageID, callerID uint) error) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	messageID, err := infrastructure.PathUint(r, "messageID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := op(r.Context(), messageID, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) chatOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, chatID, callerID uint) error) {
	caller, ok := user.Caller(w, r)
	if !ok {
		return
	}
	chatID, err := infrastructure.PathUint(r, "chatID")
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	if err := op(r.Context(), chatID, caller.ID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
