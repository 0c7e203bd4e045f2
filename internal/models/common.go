package models

const (
	RoleStudent = "user"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// Name returns the best human-readable name for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

type ListParams struct {
	Page     int
	PageSize int
}
