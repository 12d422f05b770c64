package posts

import "time"

// Post status values.
const (
	StatusPublished = "PUBLISHED"
	StatusDraft     = "DRAFT"
	StatusDeleted   = "DELETED"
)

// ValidStatus reports whether the given post status is known.
func ValidStatus(status string) bool {
	switch status {
	case StatusPublished, StatusDraft, StatusDeleted:
		return true
	default:
		return false
	}
}

// Post is a blog entry authored by a user.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	ViewCount int       `json:"viewCount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Image is a file attachment stored in the object store and referenced by
// its storage key.
type Image struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
