package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// RelationStatus is the relation between a viewer and another user.
type RelationStatus string

const (
	RelationNone            RelationStatus = "none"
	RelationPendingSent     RelationStatus = "pending_sent"
	RelationPendingReceived RelationStatus = "pending_received"
	RelationFriends         RelationStatus = "friends"
)

// Friendship is the single row describing the relation between two users.
// The pair (UserLowID, UserHighID) is unique regardless of who asked first;
// RequesterID records who initiated the request.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserLowID   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	UserHighID  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair;index" json:"-"`
	RequesterID uint             `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint             `gorm:"not null;index" json:"addressee_id"`
	Status      FriendshipStatus `gorm:"type:varchar(20);default:'pending';index:idx_friendships_status" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate fills the canonical pair from the requester/addressee direction.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.RequesterID == f.AddresseeID {
		return NewValidationError("cannot befriend yourself")
	}
	f.UserLowID, f.UserHighID = OrderedPair(f.RequesterID, f.AddresseeID)
	if f.Status == "" {
		f.Status = FriendshipStatusPending
	}
	return nil
}

// OrderedPair returns a and b with the smaller id first.
func OrderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// OtherUser returns the side of the friendship that is not userID.
func (f *Friendship) OtherUser(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// RelationFor resolves the relation as seen by viewer.
func (f *Friendship) RelationFor(viewer uint) RelationStatus {
	switch {
	case f == nil:
		return RelationNone
	case f.Status == FriendshipStatusAccepted:
		return RelationFriends
	case f.RequesterID == viewer:
		return RelationPendingSent
	default:
		return RelationPendingReceived
	}
}
