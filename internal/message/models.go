package message

import "time"

type Type string

const (
	TypeText  Type = "TEXT"
	TypeImage Type = "IMAGE"
	TypeVideo Type = "VIDEO"
	TypeFile  Type = "FILE"
)

type SendStatus string

const (
	StatusSent      SendStatus = "SENT"
	StatusDelivered SendStatus = "DELIVERED"
)

type Visibility string

const (
	VisibilityVisible     Visibility = "VISIBLE"
	VisibilityDeleteForMe Visibility = "DELETE_FOR_ME"
)

// Message belongs to a chat. SenderID is nullable so deleting a user
// detaches their messages instead of destroying chat history. The two
// visibility columns track "delete for me" independently for the
// sender's side and everyone else's side.
type Message struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ChatID             uint       `gorm:"not null;index" json:"chatId"`
	SenderID           *uint      `gorm:"index" json:"senderId,omitempty"`
	Type               Type       `gorm:"type:varchar(16);not null;default:TEXT" json:"type"`
	Content            string     `gorm:"type:text" json:"content"`
	SendStatus         SendStatus `gorm:"type:varchar(16);not null;default:SENT" json:"sendStatus"`
	SenderVisibility   Visibility `gorm:"type:varchar(16);not null;default:VISIBLE" json:"-"`
	ReceiverVisibility Visibility `gorm:"type:varchar(16);not null;default:VISIBLE" json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (m *Message) isSender(userID uint) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

// MessageRead records that a user has read a message. The unique index
// makes the operation idempotent under concurrent requests.
type MessageRead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_user" json:"messageId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_user" json:"userId"`
	ReadAt    time.Time `gorm:"not null" json:"readAt"`
}

// Attachment stores file metadata for a message. StorageKey is the
// opaque handle under which the blob lives in external storage.
type Attachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MessageID   uint      `gorm:"not null;index" json:"messageId"`
	FileName    string    `gorm:"not null" json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	StorageKey  string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"storageKey"`
	CreatedAt   time.Time `json:"createdAt"`
}
