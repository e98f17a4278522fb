package notification

import "time"

type Type string

const (
	TypeNewMessage    Type = "NEW_MESSAGE"
	TypeGroupInvite   Type = "GROUP_INVITE"
	TypeFriendRequest Type = "FRIEND_REQUEST"
)

// Notification is one recipient's copy of an event. ChatID and
// MessageID are set depending on the type.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ChatID    *uint     `gorm:"index" json:"chatId,omitempty"`
	MessageID *uint     `gorm:"index" json:"messageId,omitempty"`
	Type      Type      `gorm:"type:varchar(24);not null" json:"type"`
	Content   string    `gorm:"type:text" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
