package model

import "time"

type Post struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint64    `gorm:"not null;index:idx_author_time,priority:1" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID   *uint64   `gorm:"index:idx_group_time,priority:1" json:"group_id"`
	Group     *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image"`
	CreatedAt time.Time `gorm:"index;index:idx_author_time,priority:2;index:idx_group_time,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
