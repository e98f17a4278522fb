package friendship

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusBlocked  Status = "BLOCKED"
)

// Friendship is the single record for an unordered user pair. User1 is the
// requester at creation time; RequestedBy tracks who last acted (a block
// re-stamps it to the blocker). PairLo/PairHi are the normalized pair and
// carry the unique index that makes duplicate requests lose the race at the
// database, not in application code.
type Friendship struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	User1ID       uint       `gorm:"not null;index" json:"user1Id"`
	User2ID       uint       `gorm:"not null;index" json:"user2Id"`
	RequestedByID uint       `gorm:"not null" json:"requestedById"`
	Status        Status     `gorm:"type:varchar(16);not null" json:"status"`
	RequestedAt   time.Time  `json:"requestedAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	PairLo        uint       `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	PairHi        uint       `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (f *Friendship) BeforeSave(tx *gorm.DB) error {
	f.PairLo, f.PairHi = f.User1ID, f.User2ID
	if f.PairLo > f.PairHi {
		f.PairLo, f.PairHi = f.PairHi, f.PairLo
	}
	return nil
}

// Peer returns the other member of the pair.
func (f *Friendship) Peer(userID uint) uint {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}
