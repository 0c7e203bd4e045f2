package api

import (
	"context"

	"github.com/classboard/classboard-cli/internal/models"
)

// UserService covers the admin user-management endpoints plus the
// self-service profile lookup.
type UserService struct {
	client *Client
}

func NewUserService(client *Client) *UserService {
	return &UserService{client: client}
}

// Me returns the authenticated caller's profile.
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := s.client.Get(ctx, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) List(ctx context.Context, params models.ListParams) ([]models.User, error) {
	var out struct {
		Items []models.User `json:"items"`
	}
	if err := s.client.Get(ctx, "/users", listQuery(params), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	var out models.User
	if err := s.client.Get(ctx, "/users/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var out models.User
	if err := s.client.Post(ctx, "/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Update(ctx context.Context, userID string, user *models.User) (*models.User, error) {
	var out models.User
	if err := s.client.Put(ctx, "/users/"+userID, user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	return s.client.Delete(ctx, "/users/"+userID)
}
