package posts

import "context"

// ListFilter narrows post list queries. Zero values match all; Keyword
// searches title and content.
type ListFilter struct {
	Status   string
	Category string
	UserID   int64
	Keyword  string
}

// Repo defines persistence operations for posts and their images.
type Repo interface {
	Create(ctx context.Context, post Post) (int64, error)
	Get(ctx context.Context, id int64) (Post, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, error)
	Update(ctx context.Context, post Post) error
	Delete(ctx context.Context, id int64) error
	// IncrementViewCount bumps the counter atomically in storage.
	IncrementViewCount(ctx context.Context, id int64) error

	AddImage(ctx context.Context, image Image) (int64, error)
	GetImage(ctx context.Context, id int64) (Image, error)
	ListImages(ctx context.Context, postID int64) ([]Image, error)
	DeleteImage(ctx context.Context, id int64) error
}
