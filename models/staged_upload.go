package models

import "time"

// StagedUpload records an object uploaded through the staging endpoints but
// not yet claimed by a content row. The background cleaner deletes the
// storage object and the row once ExpireAt has passed, so an upload whose
// form submission never completed cannot be orphaned in the bucket forever.
type StagedUpload struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Bucket      string    `gorm:"size:255;not null" json:"bucket"`
	StoragePath string    `gorm:"size:1024;not null;index" json:"storage_path"`
	URL         string    `gorm:"size:1024;not null" json:"url"`
	ExpireAt    time.Time `gorm:"index" json:"expire_at"`
	CreatedAt   time.Time `json:"created_at"`
}
