package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/util"
)

const maxErrorBody = 4 << 10

// normalizeTransportError maps a failure with no server response at all
// (connection refused, DNS, timeout) onto the fixed network sentinel, so
// callers can never mistake it for a business error.
func normalizeTransportError(err error) error {
	return &util.APIError{
		Code:    util.CodeNetworkError,
		Message: "network error, check your connection: " + err.Error(),
	}
}

// normalizeBusinessError translates a non-zero envelope code (HTTP 200,
// business-level failure) into an APIError with a friendly message.
func normalizeBusinessError(env *models.Envelope) error {
	if env.Code == util.CodeOK {
		return nil
	}
	return &util.APIError{
		Code:      env.Code,
		Message:   util.ErrorMessage(env.Code, env.Message),
		Timestamp: env.Timestamp,
	}
}

// normalizeHTTPError translates a non-2xx status into an APIError carrying
// the HTTP status as its code. The body is consulted for an envelope-shaped
// message but never required.
func normalizeHTTPError(resp *http.Response) error {
	apiErr := &util.APIError{
		Code:    resp.StatusCode,
		Message: util.ErrorMessage(resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		apiErr.Message = util.ErrorMessage(resp.StatusCode, env.Message)
		apiErr.Timestamp = env.Timestamp
	}

	return apiErr
}
