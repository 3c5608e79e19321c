package models

import "time"

// File kinds. Attachments are user-visible downloads; inline files back
// images embedded in rich-text content.
const (
	FileKindAttachment = "attachment"
	FileKindInline     = "inline"
)

// Owner kinds for the File tagged union.
const (
	OwnerKindPost = "post"
	OwnerKindJob  = "job"
)

// File records one stored object owned by a Post or a Job. Ownership is a
// tagged union: OwnerKind discriminates, OwnerID is always set.
type File struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Filename    string    `gorm:"size:512;not null" json:"filename"`
	URL         string    `gorm:"size:1024;not null" json:"url"`
	StoragePath string    `gorm:"size:1024;not null;index" json:"storagePath"` // bucket-relative key
	MimeType    string    `gorm:"size:255" json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Kind        string    `gorm:"size:16;not null;default:'attachment'" json:"kind"`
	OwnerKind   string    `gorm:"size:8;not null;index:idx_files_owner" json:"ownerKind"`
	OwnerID     uint      `gorm:"not null;index:idx_files_owner" json:"ownerId"`
	UploadedAt  time.Time `gorm:"index" json:"uploadedAt"`
}
