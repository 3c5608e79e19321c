package models

import (
	"time"

	"gorm.io/gorm"
)

// Manager is the single credential holder for the admin area. Rows are
// provisioned by seeding only and never updated through the API.
type Manager struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:ManagerID" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (m *Manager) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return nil
}

// EnsureManager creates the seed manager row when it does not exist yet.
// An existing row is never overwritten, so password changes go through
// re-provisioning rather than the app.
func EnsureManager(db *gorm.DB, id, passwordHash string) error {
	if id == "" || passwordHash == "" {
		return nil
	}
	var count int64
	if err := db.Model(&Manager{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&Manager{ID: id, PasswordHash: passwordHash}).Error
}
