package users

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const insertUser = `
INSERT INTO users (username, email, password_hash, role, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, insertUser,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&id); err != nil {
		return 0, err
	}

	const insertProfile = `
INSERT INTO user_profiles (user_id, created_at, updated_at)
VALUES ($1, now(), now())`
	if _, err := tx.ExecContext(ctx, insertProfile, id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *PGRepo) getBy(ctx context.Context, where string, arg any) (User, error) {
	query := `
SELECT id, username, email, password_hash, role, status, created_at, updated_at
FROM users
WHERE ` + where + `
LIMIT 1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE username = $1", username)
}

func (r *PGRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE email = $1", email)
}

func (r *PGRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepo) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	const query = `
SELECT id, user_id, bio, profile_image_url, created_at, updated_at
FROM user_profiles
WHERE user_id = $1
LIMIT 1`
	var profile Profile
	var bio sql.NullString
	var imageURL sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&bio,
		&imageURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	profile.Bio = bio.String
	profile.ProfileImageURL = imageURL.String
	return profile, nil
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID int64, bio, imageURL *string) error {
	const query = `
UPDATE user_profiles
SET bio = COALESCE($2, bio),
    profile_image_url = COALESCE($3, profile_image_url),
    updated_at = now()
WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, nullableString(bio), nullableString(imageURL))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
