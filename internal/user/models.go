package user

import "time"

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

type OnlineStatus string

const (
	Online  OnlineStatus = "ONLINE"
	Offline OnlineStatus = "OFFLINE"
)

type Role string

const (
	RoleGeneral Role = "GENERAL"
	RoleAdmin   Role = "ADMIN"
)

type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `json:"name"`
	Email        string       `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	PhoneNo      string       `json:"phoneNo,omitempty"`
	Status       Status       `gorm:"type:varchar(16);not null;default:ACTIVE" json:"status"`
	OnlineStatus OnlineStatus `gorm:"type:varchar(16);not null;default:OFFLINE" json:"onlineStatus"`
	Role         Role         `gorm:"type:varchar(16);not null;default:GENERAL" json:"role"`
	LastSeen     time.Time    `json:"lastSeen"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Summary is the public projection of a user, safe to return to peers.
type Summary struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	OnlineStatus OnlineStatus `json:"onlineStatus"`
	LastSeen     time.Time    `json:"lastSeen"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:           u.ID,
		Name:         u.Name,
		OnlineStatus: u.OnlineStatus,
		LastSeen:     u.LastSeen,
	}
}
