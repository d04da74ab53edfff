package models

import "time"

// ExcerptLen is the number of characters of text used as a post's short label.
const ExcerptLen = 15

// Post is a short text entry written by an author, optionally filed under a group.
// Deleting the author deletes the post; deleting the group only clears GroupID.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"not null;index;autoCreateTime" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
}

// Excerpt returns the first ExcerptLen characters of the post text.
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) <= ExcerptLen {
		return p.Text
	}
	return string(r[:ExcerptLen])
}

// String returns the post excerpt.
func (p Post) String() string {
	return p.Excerpt()
}
