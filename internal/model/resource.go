package model

import (
	"time"
)

// Resource is an uploaded study document (PDF) and its metadata.
type Resource struct {
	ID               string    `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	Description      string    `db:"description" json:"description"`
	Subject          string    `db:"subject" json:"subject"`
	FileURL          string    `db:"file_url" json:"fileUrl"`
	FileKey          string    `db:"file_key" json:"-"` // object storage key
	OriginalFileName string    `db:"original_file_name" json:"originalFileName"`
	MimeType         string    `db:"mime_type" json:"-"`
	Size             int64     `db:"size" json:"size"`
	CreatedByID      string    `db:"created_by" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`

	// Computed fields (not in database)
	CreatedBy UserSummary `db:"-" json:"createdBy"`
	Likes     []string    `db:"-" json:"likes"`
}
