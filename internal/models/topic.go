package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Topic labels posts. Names are not unique; lookups take the oldest match.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// NameFolded is the case-folded name used by search.
	NameFolded string `gorm:"size:200;index" json:"-"`
}

// BeforeSave keeps the folded name in step with the name.
func (t *Topic) BeforeSave(_ *gorm.DB) error {
	t.NameFolded = FoldSearch(t.Name)
	return nil
}

// FoldSearch case-folds text for substring search. Stored text and search terms
// both go through it, so matching does not depend on the database's LOWER().
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// NormalizeTopicName trims surrounding whitespace. An empty result means no topic.
func NormalizeTopicName(name string) string {
	return strings.TrimSpace(name)
}
