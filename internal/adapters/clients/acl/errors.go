package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// Error codes the mirror may put in an error body.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// remoteError is what a mirror says when it refuses a request. Mirrors send
// either {"code","message"} or the same fields nested under "error".
type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"details"`
	} `json:"error"`
}

// decodeRemoteError reads an error body. It returns nil for empty or
// non-JSON bodies.
func decodeRemoteError(body io.Reader) *remoteError {
	if body == nil {
		return nil
	}

	var re remoteError
	if json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&re) != nil {
		return nil
	}

	if re.Error != nil {
		if re.Code == "" {
			re.Code = re.Error.Code
		}

		if re.Error.Message != "" {
			re.Message = re.Error.Message
		}
	}

	if re.Code == "" && re.Message == "" && re.field() == "" {
		return nil
	}

	return &re
}

// field returns one offending field named by the body, if any.
func (re *remoteError) field() string {
	if re.Error == nil {
		return ""
	}

	for name := range re.Error.Fields {
		return name
	}

	return ""
}

// exchange identifies one request to a mirror so its failure can be
// reported in domain terms.
type exchange struct {
	remote    string
	operation string
	path      string
}

// MapHTTPError maps a failed exchange with the remote to a domain error.
// It returns nil for a 2xx response.
//
// Transport failures, an open circuit, exhausted retries, 5xx and any
// unclassified status become [domain.ErrUnavailable]. A 404 becomes
// [domain.ErrNotFound] for path; 400 and 422 become [domain.ErrValidation].
// An error code in the body takes precedence over the status.
func MapHTTPError(resp *http.Response, clientErr error, remote, operation, path string) error {
	x := exchange{remote: remote, operation: operation, path: path}

	switch {
	case clientErr != nil:
		return x.transportFailure(clientErr)
	case resp == nil:
		return domain.NewUnavailableError(remote, "no response received")
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	}

	re := decodeRemoteError(resp.Body)
	if re != nil && re.Code != "" {
		return x.byCode(re)
	}

	return x.byStatus(resp.StatusCode, re)
}

func (x exchange) transportFailure(err error) error {
	var reason string

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		reason = "circuit breaker open during " + x.operation
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		reason = "max retries exceeded during " + x.operation
	default:
		reason = fmt.Sprintf("%s failed: %v", x.operation, err)
	}

	return domain.NewUnavailableError(x.remote, reason)
}

func (x exchange) byCode(re *remoteError) error {
	switch re.Code {
	case CodeNotFound:
		return domain.NewNotFoundError(x.remote, x.path)
	case CodeValidation:
		return x.invalid(re, re.Message)
	default:
		return domain.NewUnavailableError(x.remote, re.Message)
	}
}

func (x exchange) byStatus(status int, re *remoteError) error {
	msg := statusText(status, x.operation)
	if re != nil && re.Message != "" {
		msg = re.Message
	}

	switch status {
	case http.StatusNotFound:
		return domain.NewNotFoundError(x.remote, x.path)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return x.invalid(re, msg)
	default:
		return domain.NewUnavailableError(x.remote, msg)
	}
}

func (x exchange) invalid(re *remoteError, msg string) error {
	if re == nil {
		return domain.NewValidationError("", msg)
	}

	if name := re.field(); name != "" {
		return domain.NewValidationError(name, re.Error.Fields[name])
	}

	return domain.NewValidationError("", msg)
}

func statusText(status int, operation string) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "access denied"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
