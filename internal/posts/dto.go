package posts

import "time"

// CreateRequest creates a post; status defaults to PUBLISHED.
type CreateRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// UpdateRequest carries partial post updates; nil fields keep their value.
type UpdateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

// ImageView is the wire shape of an attachment.
type ImageView struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"fileName"`
	FileType  string    `json:"fileType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListItem is the summary projection for post lists.
type ListItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Author    string    `json:"author"`
	ViewCount int       `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// DetailView is the full projection including content and images.
type DetailView struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Category  string      `json:"category"`
	Author    string      `json:"author"`
	Status    string      `json:"status"`
	ViewCount int         `json:"viewCount"`
	Images    []ImageView `json:"images"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func imageView(image Image) ImageView {
	return ImageView{
		ID:        image.ID,
		FileName:  image.FileName,
		FileType:  image.FileType,
		FileSize:  image.FileSize,
		CreatedAt: image.CreatedAt,
	}
}
