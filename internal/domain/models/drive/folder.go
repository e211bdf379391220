package drive

import (
	"time"
)

// Folder is the metadata record of a folder.
//
// A user's personal root folder has the same id as the user's subject id. It
// usually has no stored record; it is resolved with a nil Name and ParentID.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	Name      *string   `json:"name" db:"name"`           // NULL = root folder
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = root folder
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RootFolder returns the implicit root folder record of a user.
func RootFolder(userID string) *Folder {
	return &Folder{ID: userID}
}

// Contents is a folder together with the children the caller may view.
type Contents struct {
	Folder  *Folder  `json:"folder"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
