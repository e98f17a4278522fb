package chat

import "time"

type Type string

const (
	TypeOneToOne Type = "ONE_TO_ONE"
	TypeGroup    Type = "GROUP"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      Type      `gorm:"type:varchar(16);not null" json:"type"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Participant struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ChatID    uint       `gorm:"not null;uniqueIndex:idx_chat_user" json:"chatId"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_chat_user" json:"userId"`
	Role      Role       `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt  time.Time  `json:"joinedAt"`
	LeftAt    *time.Time `json:"leftAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Summary is the listing projection of a chat.
type Summary struct {
	ID               uint   `json:"id"`
	Type             Type   `json:"type"`
	Name             string `json:"name,omitempty"`
	ParticipantCount int    `json:"participantCount"`
}
