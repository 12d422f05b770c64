package posts

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bsslab-backend/internal/shared/storage/object"
	"bsslab-backend/internal/shared/telemetry"
	"bsslab-backend/internal/shared/util"
	"bsslab-backend/internal/users"
)

// Service implements the blog workflows: posts plus image attachments kept
// in the object store.
type Service struct {
	Repo  Repo
	Users users.Repo
	Store object.ObjectStore
}

// NewService constructs a Service.
func NewService(repo Repo, usersRepo users.Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Users: usersRepo, Store: store}
}

// Create publishes a new post by the given author. Status defaults to
// PUBLISHED.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (DetailView, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = StatusPublished
	}
	if !ValidStatus(status) {
		return DetailView{}, fmt.Errorf("unknown post status %q", req.Status)
	}

	id, err := s.Repo.Create(ctx, Post{
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: strings.TrimSpace(req.Category),
		Status:   status,
	})
	if err != nil {
		return DetailView{}, fmt.Errorf("create post: %w", err)
	}
	return s.detail(ctx, id)
}

// ListPublished returns published posts newest first, optionally narrowed
// by category or a title/content keyword.
func (s *Service) ListPublished(ctx context.Context, category, keyword string, limit, offset int) ([]ListItem, error) {
	posts, err := s.Repo.List(ctx, ListFilter{
		Status:   StatusPublished,
		Category: strings.TrimSpace(category),
		Keyword:  strings.TrimSpace(keyword),
	}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	names := make(map[int64]string)
	items := make([]ListItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, ListItem{
			ID:        post.ID,
			Title:     post.Title,
			Category:  post.Category,
			Author:    s.authorName(ctx, names, post.UserID),
			ViewCount: post.ViewCount,
			CreatedAt: post.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) authorName(ctx context.Context, cache map[int64]string, userID int64) string {
	if name, ok := cache[userID]; ok {
		return name
	}
	name := ""
	if user, err := s.Users.GetByID(ctx, userID); err == nil {
		name = user.Username
	}
	cache[userID] = name
	return name
}

// Get returns the post detail and increments its view count.
func (s *Service) Get(ctx context.Context, id int64) (DetailView, error) {
	if err := s.Repo.IncrementViewCount(ctx, id); err != nil {
		return DetailView{}, err
	}
	return s.detail(ctx, id)
}

func (s *Service) detail(ctx context.Context, id int64) (DetailView, error) {
	post, err := s.Repo.Get(ctx, id)
	if err != nil {
		return DetailView{}, err
	}
	images, err := s.Repo.ListImages(ctx, id)
	if err != nil {
		return DetailView{}, fmt.Errorf("list images for post %d: %w", id, err)
	}

	view := DetailView{
		ID:        post.ID,
		UserID:    post.UserID,
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Category,
		Author:    s.authorName(ctx, map[int64]string{}, post.UserID),
		Status:    post.Status,
		ViewCount: post.ViewCount,
		Images:    make([]ImageView, 0, len(images)),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	for _, image := range images {
		view.Images = append(view.Images, imageView(image))
	}
	return view, nil
}

// Update applies partial edits to a post owned by the caller.
func (s *Service) Update(ctx context.Context, id, userID int64, req UpdateRequest) (DetailView, error) {
	post, err := s.Repo.Get(ctx, id)
	if err != nil {
		return DetailView{}, err
	}
	if post.UserID != userID {
		return DetailView{}, fmt.Errorf("%w: not your post", ErrAccessDenied)
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Category != nil {
		post.Category = strings.TrimSpace(*req.Category)
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if !ValidStatus(status) {
			return DetailView{}, fmt.Errorf("unknown post status %q", *req.Status)
		}
		post.Status = status
	}

	if err := s.Repo.Update(ctx, post); err != nil {
		return DetailView{}, fmt.Errorf("update post %d: %w", id, err)
	}
	return s.detail(ctx, id)
}

// Delete removes a post owned by the caller, including stored images.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	post, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("%w: not your post", ErrAccessDenied)
	}
	return s.deletePost(ctx, id)
}

// DeleteByAdmin removes any post regardless of author.
func (s *Service) DeleteByAdmin(ctx context.Context, id int64) error {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	return s.deletePost(ctx, id)
}

func (s *Service) deletePost(ctx context.Context, id int64) error {
	images, err := s.Repo.ListImages(ctx, id)
	if err != nil {
		return fmt.Errorf("list images for post %d: %w", id, err)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	for _, image := range images {
		if err := s.Store.Delete(ctx, image.StorageKey); err != nil {
			telemetry.Warn("posts.image_cleanup_failed", map[string]any{
				"post_id":  id,
				"image_id": image.ID,
				"error":    err.Error(),
			})
		}
	}
	return nil
}

// UploadImage stores the file and records it against the post. Only the
// post's author may attach images.
func (s *Service) UploadImage(ctx context.Context, postID, userID int64, fileName string, r io.Reader) (ImageView, error) {
	post, err := s.Repo.Get(ctx, postID)
	if err != nil {
		return ImageView{}, err
	}
	if post.UserID != userID {
		return ImageView{}, fmt.Errorf("%w: not your post", ErrAccessDenied)
	}

	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return ImageView{}, err
	}

	namespace := "posts/" + util.HashNamespace(strconv.FormatInt(postID, 10))
	storageKey, size, mimeType, err := s.Store.Save(ctx, namespace, safeName, r)
	if err != nil {
		return ImageView{}, fmt.Errorf("store image: %w", err)
	}

	id, err := s.Repo.AddImage(ctx, Image{
		PostID:     postID,
		FileName:   safeName,
		FileType:   mimeType,
		FileSize:   size,
		StorageKey: storageKey,
	})
	if err != nil {
		if cleanupErr := s.Store.Delete(ctx, storageKey); cleanupErr != nil {
			telemetry.Warn("posts.image_cleanup_failed", map[string]any{
				"post_id": postID,
				"error":   cleanupErr.Error(),
			})
		}
		return ImageView{}, fmt.Errorf("record image: %w", err)
	}

	image, err := s.Repo.GetImage(ctx, id)
	if err != nil {
		return ImageView{}, err
	}
	return imageView(image), nil
}

// OpenImage streams a stored image; the caller must close the reader.
func (s *Service) OpenImage(ctx context.Context, imageID int64) (Image, io.ReadCloser, error) {
	image, err := s.Repo.GetImage(ctx, imageID)
	if err != nil {
		return Image{}, nil, err
	}
	rc, err := s.Store.Open(ctx, image.StorageKey)
	if err != nil {
		return Image{}, nil, fmt.Errorf("open image %d: %w", imageID, err)
	}
	return image, rc, nil
}

// DeleteImage removes an attachment; only the post's author may do so.
func (s *Service) DeleteImage(ctx context.Context, imageID, userID int64) error {
	image, err := s.Repo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	post, err := s.Repo.Get(ctx, image.PostID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("%w: not your post", ErrAccessDenied)
	}

	if err := s.Repo.DeleteImage(ctx, imageID); err != nil {
		return fmt.Errorf("delete image %d: %w", imageID, err)
	}
	if err := s.Store.Delete(ctx, image.StorageKey); err != nil {
		telemetry.Warn("posts.image_cleanup_failed", map[string]any{
			"post_id":  image.PostID,
			"image_id": imageID,
			"error":    err.Error(),
		})
	}
	return nil
}
