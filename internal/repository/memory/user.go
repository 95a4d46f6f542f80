package memory

import (
	"context"

	"kanban-board/internal/models"
)

func (q *Queries) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	defer q.guard()()
	for _, u := range q.d.users {
		if u.Email == user.Email {
			return nil, models.ErrConflict
		}
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	q.d.users[user.ID] = user
	q.d.track(user.ID)
	return &user, nil
}

func (q *Queries) GetUserByID(_ context.Context, id string) (*models.User, error) {
	defer q.guard()()
	u, ok := q.d.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (q *Queries) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer q.guard()()
	for _, u := range q.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (q *Queries) UpdateUser(_ context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	defer q.guard()()
	u, ok := q.d.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if patch.Name.Set {
		u.Name = patch.Name.Ptr()
	}
	if patch.JobTitle.Set {
		u.JobTitle = patch.JobTitle.Ptr()
	}
	u.UpdatedAt = now()
	q.d.users[id] = u
	return &u, nil
}

func (q *Queries) SetUserAvatar(_ context.Context, id, url string) (*models.User, error) {
	defer q.guard()()
	u, ok := q.d.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.AvatarURL = &url
	u.UpdatedAt = now()
	q.d.users[id] = u
	return &u, nil
}
