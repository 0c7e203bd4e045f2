package api

import (
	"context"

	"github.com/classboard/classboard-cli/internal/models"
)

type HomeworkService struct {
	client *Client
}

func NewHomeworkService(client *Client) *HomeworkService {
	return &HomeworkService{client: client}
}

// List returns the homework of one class. status filters by the caller's
// submission state ("pending", "graded", "late"); empty means all.
func (s *HomeworkService) List(ctx context.Context, classID, status string, params models.ListParams) (*models.HomeworkListResponse, error) {
	q := listQuery(params)
	q.Set("class_id", classID)
	if status != "" {
		q.Set("status", status)
	}

	var out models.HomeworkListResponse
	if err := s.client.Get(ctx, "/homeworks", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HomeworkService) Get(ctx context.Context, homeworkID string) (*models.Homework, error) {
	var out models.Homework
	if err := s.client.Get(ctx, "/homeworks/"+homeworkID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HomeworkService) Create(ctx context.Context, req models.CreateHomeworkRequest) (*models.Homework, error) {
	var out models.Homework
	if err := s.client.Post(ctx, "/homeworks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HomeworkService) Update(ctx context.Context, homeworkID string, req models.UpdateHomeworkRequest) (*models.Homework, error) {
	var out models.Homework
	if err := s.client.Put(ctx, "/homeworks/"+homeworkID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HomeworkService) Delete(ctx context.Context, homeworkID string) error {
	return s.client.Delete(ctx, "/homeworks/"+homeworkID)
}

// Stats returns the teacher-facing grading statistics of one homework.
func (s *HomeworkService) Stats(ctx context.Context, homeworkID string) (*models.HomeworkStats, error) {
	var out models.HomeworkStats
	if err := s.client.Get(ctx, "/homeworks/"+homeworkID+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
