package postgres

import (
	"context"
	"database/sql"

	"kanban-board/internal/models"
)

const (
	userColumns     = "id, email, password_hash, name, job_title, avatar_url, created_at, updated_at"
	insertUserQuery = `
INSERT INTO users (id, email, password_hash, name)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	selectUserByIDQuery    = "SELECT " + userColumns + " FROM users WHERE id = $1"
	selectUserByEmailQuery = "SELECT " + userColumns + " FROM users WHERE email = $1"
	updateAvatarQuery      = "UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1 RETURNING " + userColumns
)

func scanUser(row scanner) (*models.User, error) {
	var (
		u                    models.User
		name, job, avatarURL sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &job, &avatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Name = nullString(name)
	u.JobTitle = nullString(job)
	u.AvatarURL = nullString(avatarURL)
	return &u, nil
}

// CreateUser inserts a user; a taken email yields models.ErrConflict.
func (q *Queries) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, insertUserQuery, user.ID, user.Email, user.PasswordHash, user.Name))
	if err != nil {
		return nil, mapError(err, "insert user")
	}
	return u, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, selectUserByIDQuery, id))
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, selectUserByEmailQuery, email))
	if err != nil {
		return nil, mapError(err, "get user by email")
	}
	return u, nil
}

func (q *Queries) UpdateUser(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	var b updateBuilder
	if patch.Name.Set {
		b.add("name", patch.Name.Ptr())
	}
	if patch.JobTitle.Set {
		b.add("job_title", patch.JobTitle.Ptr())
	}
	clause, args := b.build(id)
	u, err := scanUser(q.db.QueryRowContext(ctx, "UPDATE users "+clause+" RETURNING "+userColumns, args...))
	if err != nil {
		return nil, mapError(err, "update user")
	}
	return u, nil
}

func (q *Queries) SetUserAvatar(ctx context.Context, id, url string) (*models.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, updateAvatarQuery, id, url))
	if err != nil {
		return nil, mapError(err, "update avatar")
	}
	return u, nil
}
