package models

import "time"

const (
	ClassRoleStudent        = "student"
	ClassRoleRepresentative = "representative"
	ClassRoleTeacher        = "teacher"
)

type Class struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	InviteCode  string    `json:"invite_code,omitempty"`
	TeacherID   string    `json:"teacher_id"`
	MemberCount int       `json:"member_count"`
	MyRole      string    `json:"my_role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ClassMember struct {
	UserID   string    `json:"user_id"`
	User     *User     `json:"user,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type CreateClassRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateClassRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type JoinClassRequest struct {
	InviteCode string `json:"invite_code"`
}

type ClassListResponse struct {
	Items      []Class     `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ClassMemberListResponse struct {
	Items      []ClassMember `json:"items"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}
