package models

import "time"

type Submission struct {
	ID          string     `json:"id"`
	HomeworkID  string     `json:"homework_id"`
	StudentID   string     `json:"student_id"`
	Student     *User      `json:"student,omitempty"`
	Version     int        `json:"version"`
	Status      string     `json:"status"`
	Content     string     `json:"content,omitempty"`
	Attachments []FileInfo `json:"attachments,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

type SubmitHomeworkRequest struct {
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type GradeSubmissionRequest struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}

type SubmissionListResponse struct {
	Items      []Submission `json:"items"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}
