package services

import (
	"context"
	"errors"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

type UserService struct {
	db core.DbClient
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &core.NotFoundError{Resource: "user"}
	}
	return u, nil
}

// Reconcile makes sure the token's user exists locally and carries the
// token's profile claims. It writes only when something changed.
func (s *UserService) Reconcile(ctx context.Context, p models.Principal) (*models.User, error) {
	if p.UserID == "" {
		return nil, errors.New("principal without user id")
	}

	stored, err := s.db.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if stored != nil && matchesClaims(stored, p) {
		return stored, nil
	}

	return s.db.UpsertUser(ctx, &models.User{
		ID:              p.UserID,
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.ProfileImageURL,
	})
}

func matchesClaims(u *models.User, p models.Principal) bool {
	return u.Email == p.Email &&
		u.FirstName == p.FirstName &&
		u.LastName == p.LastName &&
		u.ProfileImageURL == p.ProfileImageURL
}
