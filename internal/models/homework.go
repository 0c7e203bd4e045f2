package models

import "time"

const (
	SubmissionStatusPending = "pending"
	SubmissionStatusGraded  = "graded"
	SubmissionStatusLate    = "late"
)

type Homework struct {
	ID           string       `json:"id"`
	ClassID      string       `json:"class_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	MaxScore     *float64     `json:"max_score,omitempty"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	AllowLate    bool         `json:"allow_late"`
	Attachments  []FileInfo   `json:"attachments,omitempty"`
	MySubmission *Submission  `json:"my_submission,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type CreateHomeworkRequest struct {
	ClassID     string     `json:"class_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	MaxScore    *float64   `json:"max_score,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	AllowLate   *bool      `json:"allow_late,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

type UpdateHomeworkRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	MaxScore    *float64   `json:"max_score,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	AllowLate   *bool      `json:"allow_late,omitempty"`
}

type HomeworkListResponse struct {
	Items      []Homework  `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type HomeworkStats struct {
	Submitted   int          `json:"submitted"`
	Unsubmitted int          `json:"unsubmitted"`
	Graded      int          `json:"graded"`
	AvgScore    *float64     `json:"avg_score,omitempty"`
	ScoreRanges []ScoreRange `json:"score_ranges,omitempty"`
}

type ScoreRange struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type FileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
