package db

import "time"

// PostPreviewLength 是 Post.String 截取的字符数。
const PostPreviewLength = 15

// Post 定义了文章模型，默认按发布时间倒序展示。
type Post struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index;not null"`
	AuthorID uint      `gorm:"not null;index"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	GroupID  *uint     `gorm:"index"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL;"`
}

// DefaultPostOrder 对应列表页的默认排序：最新的在前。
const DefaultPostOrder = "posts.pub_date desc, posts.id desc"

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= PostPreviewLength {
		return p.Text
	}
	return string(runes[:PostPreviewLength])
}

// GroupIDValue 返回所属分组 ID，未分组时为 0。
func (p Post) GroupIDValue() uint {
	if p.GroupID == nil {
		return 0
	}
	return *p.GroupID
}
