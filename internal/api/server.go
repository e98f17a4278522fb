package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"parley/infrastructure"
	"parley/internal/auth"
	"parley/internal/chat"
	"parley/internal/friendship"
	"parley/internal/invitation"
	"parley/internal/message"
	"parley/internal/notification"
	"parley/internal/user"
)

type Server struct {
	router *mux.Router
}

type Handlers struct {
	Auth          *auth.Handler
	AuthMW        *auth.Middleware
	Users         *user.Handler
	Friendships   *friendship.Handler
	Chats         *chat.Handler
	Invitations   *invitation.Handler
	Messages      *message.Handler
	Notifications *notification.Handler
}

func NewServer(h Handlers) *Server {
	r := mux.NewRouter()
	r.Use(Logger)
	r.Use(RateLimit(100))

	r.HandleFunc("/health", healthCheck).Methods("GET")

	r.HandleFunc("/register", h.Auth.Register).Methods("POST")
	r.HandleFunc("/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/refresh", h.Auth.Refresh).Methods("POST")
	r.HandleFunc("/activate", h.Auth.Activate).Methods("POST")

	s := r.PathPrefix("/api/v1").Subrouter()
	s.Use(h.AuthMW.Handler)

	s.HandleFunc("/users/me", h.Users.Me).Methods("GET")
	s.HandleFunc("/users/me", h.Users.Update).Methods("PATCH")
	s.HandleFunc("/users/me", h.Users.Delete).Methods("DELETE")
	s.HandleFunc("/users/me/deactivate", h.Users.Deactivate).Methods("POST")
	s.HandleFunc("/users/me/online-status", h.Users.ToggleOnlineStatus).Methods("POST")
	s.HandleFunc("/users/me/last-seen", h.Users.TouchLastSeen).Methods("POST")
	s.HandleFunc("/users/{id:[0-9]+}", h.Users.Get).Methods("GET")
	s.HandleFunc("/users/search", h.Users.Search).Methods("GET")
	s.HandleFunc("/users", h.Users.ListAll).Methods("GET")
	s.HandleFunc("/users/{id:[0-9]+}/last-seen", h.Users.LastSeen).Methods("GET")

	s.HandleFunc("/friends/requests/{userID:[0-9]+}", h.Friendships.SendRequest).Methods("POST")
	s.HandleFunc("/friends/requests/{userID:[0-9]+}/accept", h.Friendships.Accept).Methods("POST")
	s.HandleFunc("/friends/requests/{userID:[0-9]+}", h.Friendships.Cancel).Methods("DELETE")
	s.HandleFunc("/friends/{userID:[0-9]+}", h.Friendships.Remove).Methods("DELETE")
	s.HandleFunc("/friends/{userID:[0-9]+}/block", h.Friendships.Block).Methods("POST")
	s.HandleFunc("/friends/{userID:[0-9]+}/unblock", h.Friendships.Unblock).Methods("POST")
	s.HandleFunc("/friends/{userID:[0-9]+}/status", h.Friendships.Status).Methods("GET")
	s.HandleFunc("/friends", h.Friendships.ListAccepted).Methods("GET")
	s.HandleFunc("/friends/requests/incoming", h.Friendships.ListPending).Methods("GET")
	s.HandleFunc("/friends/requests/outgoing", h.Friendships.ListSent).Methods("GET")
	s.HandleFunc("/friends/blocked", h.Friendships.ListBlocked).Methods("GET")

	s.HandleFunc("/chats", h.Chats.Create).Methods("POST")
	s.HandleFunc("/chats", h.Chats.List).Methods("GET")
	s.HandleFunc("/chats/search", h.Chats.Search).Methods("GET")
	s.HandleFunc("/chats/{chatID:[0-9]+}", h.Chats.Delete).Methods("DELETE")
	s.HandleFunc("/chats/{chatID:[0-9]+}/leave", h.Chats.Leave).Methods("POST")
	s.HandleFunc("/chats/{chatID:[0-9]+}/participants", h.Chats.ListParticipants).Methods("GET")
	s.HandleFunc("/chats/{chatID:[0-9]+}/participants/{userID:[0-9]+}", h.Chats.AddParticipant).Methods("POST")
	s.HandleFunc("/chats/{chatID:[0-9]+}/participants/{userID:[0-9]+}", h.Chats.RemoveParticipant).Methods("DELETE")
	s.HandleFunc("/chats/{chatID:[0-9]+}/participants/{userID:[0-9]+}/role", h.Chats.ToggleRole).Methods("POST")

	s.HandleFunc("/invitations", h.Invitations.Send).Methods("POST")
	s.HandleFunc("/invitations", h.Invitations.ListPending).Methods("GET")
	s.HandleFunc("/invitations/{invitationID:[0-9]+}/accept", h.Invitations.Accept).Methods("POST")
	s.HandleFunc("/invitations/{invitationID:[0-9]+}/reject", h.Invitations.Reject).Methods("POST")

	s.HandleFunc("/chats/{chatID:[0-9]+}/messages", h.Messages.Create).Methods("POST")
	s.HandleFunc("/chats/{chatID:[0-9]+}/messages", h.Messages.List).Methods("GET")
	s.HandleFunc("/chats/{chatID:[0-9]+}/messages", h.Messages.DeleteAllForMe).Methods("DELETE")
	s.HandleFunc("/chats/{chatID:[0-9]+}/messages/read-all", h.Messages.MarkAllRead).Methods("POST")
	s.HandleFunc("/messages/{messageID:[0-9]+}/delivered", h.Messages.MarkDelivered).Methods("POST")
	s.HandleFunc("/messages/{messageID:[0-9]+}/read", h.Messages.MarkRead).Methods("POST")
	s.HandleFunc("/messages/{messageID:[0-9]+}", h.Messages.DeleteForMe).Methods("DELETE")
	s.HandleFunc("/messages/{messageID:[0-9]+}/everyone", h.Messages.DeleteForEveryone).Methods("DELETE")
	s.HandleFunc("/messages/{messageID:[0-9]+}/unread-count", h.Messages.UnreadCount).Methods("GET")
	s.HandleFunc("/messages/{messageID:[0-9]+}/readers", h.Messages.Readers).Methods("GET")
	s.HandleFunc("/messages/{messageID:[0-9]+}/attachments", h.Messages.AddAttachment).Methods("POST")
	s.HandleFunc("/messages/{messageID:[0-9]+}/attachments", h.Messages.ListAttachments).Methods("GET")
	s.HandleFunc("/attachments/{attachmentID:[0-9]+}", h.Messages.GetAttachment).Methods("GET")
	s.HandleFunc("/attachments/{attachmentID:[0-9]+}", h.Messages.RemoveAttachment).Methods("DELETE")

	s.HandleFunc("/notifications", h.Notifications.List).Methods("GET")
	s.HandleFunc("/notifications", h.Notifications.DeleteAll).Methods("DELETE")
	s.HandleFunc("/notifications/unread-count", h.Notifications.UnreadCount).Methods("GET")
	s.HandleFunc("/notifications/{notificationID:[0-9]+}/read", h.Notifications.MarkAsRead).Methods("POST")
	s.HandleFunc("/notifications/{notificationID:[0-9]+}", h.Notifications.Delete).Methods("DELETE")

	return &Server{router: r}
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
