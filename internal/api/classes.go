package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/classboard/classboard-cli/internal/models"
)

type ClassService struct {
	client *Client
}

func NewClassService(client *Client) *ClassService {
	return &ClassService{client: client}
}

func (s *ClassService) List(ctx context.Context, params models.ListParams) (*models.ClassListResponse, error) {
	var out models.ClassListResponse
	if err := s.client.Get(ctx, "/classes", listQuery(params), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) Get(ctx context.Context, classID string) (*models.Class, error) {
	var out models.Class
	if err := s.client.Get(ctx, "/classes/"+classID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByCode looks a class up by its invite code, without joining it.
func (s *ClassService) GetByCode(ctx context.Context, code string) (*models.Class, error) {
	var out models.Class
	if err := s.client.Get(ctx, "/classes/code/"+code, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) Create(ctx context.Context, req models.CreateClassRequest) (*models.Class, error) {
	var out models.Class
	if err := s.client.Post(ctx, "/classes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) Update(ctx context.Context, classID string, req models.UpdateClassRequest) (*models.Class, error) {
	var out models.Class
	if err := s.client.Put(ctx, "/classes/"+classID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) Delete(ctx context.Context, classID string) error {
	return s.client.Delete(ctx, "/classes/"+classID)
}

func (s *ClassService) Join(ctx context.Context, inviteCode string) (*models.Class, error) {
	var out models.Class
	if err := s.client.Post(ctx, "/classes/join", models.JoinClassRequest{InviteCode: inviteCode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) Members(ctx context.Context, classID string, params models.ListParams) (*models.ClassMemberListResponse, error) {
	var out models.ClassMemberListResponse
	if err := s.client.Get(ctx, "/classes/"+classID+"/members", listQuery(params), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClassService) RemoveMember(ctx context.Context, classID, userID string) error {
	return s.client.Delete(ctx, "/classes/"+classID+"/members/"+userID)
}

func listQuery(params models.ListParams) url.Values {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	return q
}
