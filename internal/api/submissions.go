package api

import (
	"context"

	"github.com/classboard/classboard-cli/internal/models"
)

type SubmissionService struct {
	client *Client
}

func NewSubmissionService(client *Client) *SubmissionService {
	return &SubmissionService{client: client}
}

func (s *SubmissionService) List(ctx context.Context, homeworkID string, params models.ListParams) (*models.SubmissionListResponse, error) {
	q := listQuery(params)
	q.Set("homework_id", homeworkID)

	var out models.SubmissionListResponse
	if err := s.client.Get(ctx, "/submissions", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubmissionService) Get(ctx context.Context, submissionID string) (*models.Submission, error) {
	var out models.Submission
	if err := s.client.Get(ctx, "/submissions/"+submissionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit creates or re-submits the caller's submission for a homework.
// The backend bumps the version on re-submission.
func (s *SubmissionService) Submit(ctx context.Context, homeworkID string, req models.SubmitHomeworkRequest) (*models.Submission, error) {
	var out models.Submission
	if err := s.client.Post(ctx, "/homeworks/"+homeworkID+"/submissions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubmissionService) Grade(ctx context.Context, submissionID string, req models.GradeSubmissionRequest) (*models.Submission, error) {
	var out models.Submission
	if err := s.client.Post(ctx, "/submissions/"+submissionID+"/grade", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
