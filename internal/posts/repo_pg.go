package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	DB *sql.DB
}

const postColumns = "id, user_id, title, content, category, view_count, status, created_at, updated_at"

func (r *PGRepo) Create(ctx context.Context, post Post) (int64, error) {
	const query = `
INSERT INTO posts (user_id, title, content, category, view_count, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, now(), now())
RETURNING id`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		nullableString(post.Category),
		post.Status,
	).Scan(&id)
	return id, err
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts WHERE id = $1 LIMIT 1`
	post, err := scanPost(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		clauses = append(clauses, "status = "+arg(filter.Status))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = "+arg(filter.Category))
	}
	if filter.UserID != 0 {
		clauses = append(clauses, "user_id = "+arg(filter.UserID))
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		clauses = append(clauses, "(title ILIKE "+arg(pattern)+" OR content ILIKE "+arg(pattern)+")")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, post Post) error {
	const query = `
UPDATE posts
SET title = $2, content = $3, category = $4, status = $5, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		nullableString(post.Category),
		post.Status,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const imageColumns = "id, post_id, file_name, file_type, file_size, storage_key, created_at, updated_at"

func (r *PGRepo) AddImage(ctx context.Context, image Image) (int64, error) {
	const query = `
INSERT INTO post_images (post_id, file_name, file_type, file_size, storage_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING id`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		image.PostID,
		image.FileName,
		nullableString(image.FileType),
		image.FileSize,
		image.StorageKey,
	).Scan(&id)
	return id, err
}

func (r *PGRepo) GetImage(ctx context.Context, id int64) (Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM post_images WHERE id = $1 LIMIT 1`
	image, err := scanImage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Image{}, ErrNotFound
		}
		return Image{}, err
	}
	return image, nil
}

func (r *PGRepo) ListImages(ctx context.Context, postID int64) ([]Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM post_images WHERE post_id = $1 ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, image)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteImage(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM post_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var post Post
	var category sql.NullString
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&category,
		&post.ViewCount,
		&post.Status,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	post.Category = category.String
	return post, nil
}

func scanImage(row rowScanner) (Image, error) {
	var image Image
	var fileType sql.NullString
	err := row.Scan(
		&image.ID,
		&image.PostID,
		&image.FileName,
		&fileType,
		&image.FileSize,
		&image.StorageKey,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return Image{}, err
	}
	image.FileType = fileType.String
	return image, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
