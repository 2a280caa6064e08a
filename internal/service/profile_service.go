package service

import (
	"context"

	"github.com/sayu/sayu-backend/internal/model"
)

// ProfileReader reads personality profiles.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (*model.PersonalityProfile, error)
}

// ProfileService exposes a user's current profile.
type ProfileService struct {
	profiles ProfileReader
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles ProfileReader) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the user's profile or a NotFound error before their first quiz.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.PersonalityProfile, error) {
	return s.profiles.Get(ctx, userID)
}
