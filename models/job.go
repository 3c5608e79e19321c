package models

import "time"

// Job is a recruitment posting. Deadline is NULL whenever the posting is
// always-recruiting; the two are mutually exclusive at the API layer.
type Job struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              string     `gorm:"size:255;not null" json:"title"`
	Experience         string     `gorm:"size:255;not null" json:"experience"`
	Location           string     `gorm:"size:255;not null" json:"location"`
	EmploymentType     string     `gorm:"size:64;not null" json:"employmentType"`
	Deadline           *time.Time `json:"deadline"`
	IsAlwaysRecruiting bool       `gorm:"default:false" json:"isAlwaysRecruiting"`
	Content            *string    `gorm:"type:text" json:"content"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	Files              []File     `gorm:"-" json:"files"`
}
