package posts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64

	posts  map[int64]Post
	images map[int64]Image
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		posts:  make(map[int64]Post),
		images: make(map[int64]Image),
	}
}

func (r *MemoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepo) Create(ctx context.Context, post Post) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = r.id()
	post.ViewCount = 0
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = post
	return post.ID, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return post, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keyword := strings.ToLower(filter.Keyword)
	var out []Post
	for _, post := range r.posts {
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		if filter.Category != "" && post.Category != filter.Category {
			continue
		}
		if filter.UserID != 0 && post.UserID != filter.UserID {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(post.Title), keyword) &&
			!strings.Contains(strings.ToLower(post.Content), keyword) {
			continue
		}
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, post Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	post.UserID = existing.UserID
	post.ViewCount = existing.ViewCount
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now().UTC()
	r.posts[post.ID] = post
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	for iid, image := range r.images {
		if image.PostID == id {
			delete(r.images, iid)
		}
	}
	return nil
}

func (r *MemoryRepo) IncrementViewCount(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return ErrNotFound
	}
	post.ViewCount++
	r.posts[id] = post
	return nil
}

func (r *MemoryRepo) AddImage(ctx context.Context, image Image) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	image.ID = r.id()
	image.CreatedAt = now
	image.UpdatedAt = now
	r.images[image.ID] = image
	return image.ID, nil
}

func (r *MemoryRepo) GetImage(ctx context.Context, id int64) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	image, ok := r.images[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return image, nil
}

func (r *MemoryRepo) ListImages(ctx context.Context, postID int64) ([]Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Image
	for _, image := range r.images {
		if image.PostID == postID {
			out = append(out, image)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) DeleteImage(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return ErrNotFound
	}
	delete(r.images, id)
	return nil
}
