package service

import (
	"context"
	"errors"

	"kanban-board/internal/models"

	"go.uber.org/zap"
)

func userNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFound("User not found")
	}
	return err
}

// GetProfile returns the user's own profile.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, userNotFound(err)
	}
	return user, nil
}

// UpdateProfile applies the fields present in patch; an explicit null job title clears it.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	user, err := s.repo.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, userNotFound(err)
	}
	s.audit("profile updated", userID)
	return user, nil
}

// SetAvatar records the public URL of an uploaded avatar.
func (s *Service) SetAvatar(ctx context.Context, userID, url string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repo.SetUserAvatar(ctx, userID, url)
	if err != nil {
		return nil, userNotFound(err)
	}
	s.audit("avatar updated", userID, zap.String("url", url))
	return user, nil
}
