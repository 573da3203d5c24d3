package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
)

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

func (s *UserService) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepository.ByUsername(ctx, strings.TrimSpace(username))
}

// Approve sets which kinds of property a user may work on. Only operators
// call this; there is no HTTP route for it.
func (s *UserService) Approve(ctx context.Context, username string, domestic, foreign bool) (*model.User, error) {
	username = strings.TrimSpace(username)

	if err := s.userRepository.SetApproval(ctx, username, domestic, foreign); err != nil {
		return nil, fmt.Errorf("failed to set approval for %q: %w", username, err)
	}

	slog.Info("user approval changed", "username", username, "domestic", domestic, "foreign", foreign)
	return s.userRepository.ByUsername(ctx, username)
}
