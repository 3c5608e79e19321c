package models

import "time"

// Post is a notice-board entry written by the manager. Content holds
// sanitized HTML produced by the rich-text editor.
type Post struct {
	BoardID   uint      `gorm:"primaryKey;column:board_id" json:"boardId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   *string   `gorm:"type:text" json:"content"`
	IsNotice  bool      `gorm:"default:false" json:"isNotice"`
	ManagerID string    `gorm:"size:64;index;not null" json:"managerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Files     []File    `gorm:"-" json:"files"`
}
