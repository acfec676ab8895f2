package db

// Group 是文章可以归属的社区
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:25;uniqueIndex;not null"`
	Description string `gorm:"type:text;not null"`
}

func (g Group) String() string {
	return g.Title
}
