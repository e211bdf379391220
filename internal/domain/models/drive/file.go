package drive

import (
	"time"
)

// File is the metadata record of an uploaded file.
// Content holds the content address of the bytes in the blob store.
type File struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Content      string    `json:"file_name" db:"content"` // sha256 hex + original extension
	Size         int64     `json:"size" db:"size"`
	LastModified time.Time `json:"last_modified" db:"last_modified"`
	ParentID     string    `json:"parent_id" db:"parent_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
