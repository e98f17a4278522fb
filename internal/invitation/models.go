package invitation

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Invitation asks a user to join a group chat. Once accepted or
// rejected it is terminal and never returns to PENDING.
type Invitation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChatID      uint       `gorm:"not null;index" json:"chatId"`
	SenderID    uint       `gorm:"not null" json:"senderId"`
	ReceiverID  uint       `gorm:"not null;index" json:"receiverId"`
	Status      Status     `gorm:"type:varchar(16);not null;default:PENDING" json:"status"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
