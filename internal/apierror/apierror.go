// Package apierror classifies upstream API failures into a closed set
// of kinds the reconciler can make policy decisions on: whether an
// error is recoverable per item, aborts the direction, or requires user
// action and disables the account.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed taxonomy of classified failures.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindInternal
	KindUnavailable
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindInternal:
		return "internal"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// APIError is one classified upstream failure.
type APIError struct {
	Op             string
	Status         int
	Kind           Kind
	Message        string
	RequiresAction bool
	SuggestedFix   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
}

// Sub-code fragments upstream services embed in error bodies. Matching
// one attaches a user-actionable fix and marks the error
// requires-action.
var subCodeFixes = []struct {
	fragment string
	fix      string
}{
	{"subscription lapsed", "renew the subscription to resume syncing"},
	{"trial expired", "upgrade to a paid plan to resume syncing"},
	{"scope missing", "reconnect the account to grant the required scopes"},
	{"data limit reached", "reduce usage or upgrade the plan, then re-enable syncing"},
}

// Classify maps an HTTP status and upstream error body to an APIError.
func Classify(op string, status int, body string) *APIError {
	e := &APIError{
		Op:      op,
		Status:  status,
		Message: messageFromBody(body, status),
	}

	switch {
	case status == http.StatusBadRequest:
		e.Kind = KindBadRequest
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.RequiresAction = true
		e.SuggestedFix = "reconnect the account to refresh its credentials"
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		e.RequiresAction = true
		e.SuggestedFix = "check the account's permissions and plan"
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500 && status <= 599:
		if status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout {
			e.Kind = KindUnavailable
		} else {
			e.Kind = KindInternal
		}
	default:
		e.Kind = KindInternal
	}

	lower := strings.ToLower(body)
	for _, sc := range subCodeFixes {
		if strings.Contains(lower, sc.fragment) {
			e.RequiresAction = true
			e.SuggestedFix = sc.fix
			break
		}
	}

	return e
}

// FromTransport wraps an unclassified transport failure (DNS, timeout,
// connection reset) as Unavailable. Transport failures never require
// user action.
func FromTransport(op string, err error) *APIError {
	return &APIError{
		Op:      op,
		Kind:    KindUnavailable,
		Message: err.Error(),
	}
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// RequiresAction reports whether err is a classified error the user
// must resolve before syncing can continue.
func RequiresAction(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RequiresAction
	}
	return false
}

// RetryableStatus reports whether a status is worth retrying at the
// transport layer before classification.
func RetryableStatus(status int) bool {
	return status >= 500 && status <= 599
}

func messageFromBody(body string, status int) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return http.StatusText(status)
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return body
}
