package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a caption with an optional topic, photo and location.
type Post struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	AuthorID  uint     `gorm:"not null;index" json:"author_id"`
	Author    User     `gorm:"foreignKey:AuthorID" json:"author"`
	TopicID   *uint    `gorm:"index" json:"topic_id,omitempty"`
	Topic     *Topic   `gorm:"foreignKey:TopicID;constraint:OnDelete:SET NULL" json:"topic,omitempty"`
	Caption   string   `gorm:"type:text" json:"caption"`
	PhotoRef  string   `json:"photo,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	// CaptionFolded is the case-folded caption used by search.
	CaptionFolded string `gorm:"type:text" json:"-"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave keeps the folded caption in step with the caption.
func (p *Post) BeforeSave(_ *gorm.DB) error {
	p.CaptionFolded = FoldSearch(p.Caption)
	return nil
}

// HasLocation reports whether both coordinates are set.
func (p *Post) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// TopicName returns the topic name or "" when the post has none.
func (p *Post) TopicName() string {
	if p.Topic == nil {
		return ""
	}
	return p.Topic.Name
}
