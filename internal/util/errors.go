package util

import "fmt"

// Backend envelope codes. 0 is success; everything else is a business error.
// Transport-level failures are mapped onto the same error shape using the
// sentinel CodeNetworkError or the raw HTTP status.
const (
	CodeOK           = 0
	CodeNetworkError = -1

	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeRateLimited  = 429
	CodeInternal     = 500

	CodeAuthFailed       = 1001
	CodeRegisterFailed   = 1002
	CodePasswordPolicy   = 1003
	CodeUserNotFound     = 2001
	CodeUserExists       = 2002
	CodeClassNotFound    = 3001
	CodeClassExists      = 3002
	CodeInviteCodeBad    = 3003
	CodeAlreadyJoined    = 3004
	CodeHomeworkNotFound = 4001
	CodeDeadlinePassed   = 4002
	CodeFileNotFound     = 5001
	CodeFileTooLarge     = 5002
	CodeFileTypeDenied   = 5003
)

type APIError struct {
	Code      int
	Message   string
	Timestamp string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

func NewAPIError(code int, format string, args ...interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

var errorMessages = map[int]string{
	CodeBadRequest:   "invalid request parameters",
	CodeUnauthorized: "authentication required",
	CodeForbidden:    "permission denied",
	CodeNotFound:     "resource not found",
	CodeConflict:     "resource conflict",
	CodeRateLimited:  "too many requests, try again later",
	CodeInternal:     "server error, try again later",

	CodeAuthFailed:       "wrong username or password",
	CodeRegisterFailed:   "registration failed",
	CodePasswordPolicy:   "password does not meet the policy (8+ chars, mixed case, digits)",
	CodeUserNotFound:     "user not found",
	CodeUserExists:       "user already exists",
	CodeClassNotFound:    "class not found",
	CodeClassExists:      "class already exists",
	CodeInviteCodeBad:    "invalid invite code",
	CodeAlreadyJoined:    "already a member of this class",
	CodeHomeworkNotFound: "homework not found",
	CodeDeadlinePassed:   "deadline has passed",
	CodeFileNotFound:     "file not found",
	CodeFileTooLarge:     "file exceeds the size limit",
	CodeFileTypeDenied:   "file type is not allowed",
}

// ErrorMessage maps a backend code to a friendly message, falling back to
// the server-provided one.
func ErrorMessage(code int, fallback string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return "operation failed, try again later"
}
