package models

const (
	// GroupTitleMaxLen is the maximum length of a group title.
	GroupTitleMaxLen = 200
	// GroupSlugMaxLen is the maximum length of a group slug.
	GroupSlugMaxLen = 50
)

// Group is a named community addressable by its slug.
type Group struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:200;not null" json:"title"`
	Slug        string  `gorm:"size:50;not null;uniqueIndex" json:"slug"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

// String returns the group title.
func (g Group) String() string {
	return g.Title
}
