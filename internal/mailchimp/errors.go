package mailchimp

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by Subscribe when any of the API key,
// server prefix or audience ID is missing. It is distinct from remote API
// failures so the caller can tell an operator problem from an upstream one.
var ErrNotConfigured = errors.New("missing Mailchimp configuration: MAILCHIMP_API_KEY, MAILCHIMP_SERVER_PREFIX and MAILCHIMP_AUDIENCE_ID must be set")

// Code classifies an API error for the caller. The classification happens
// here, at the provider boundary, from the upstream error title — handlers
// never compare raw upstream text.
type Code int

const (
	// CodeOther covers every upstream failure without a more specific
	// classification: treated as transient, no automatic retry.
	CodeOther Code = iota
	// CodeMemberExists means the address is already in the audience.
	// Not a real failure; callers normalize it to success.
	CodeMemberExists
	// CodeInvalidResource means the upstream rejected the address itself
	// (for example a known-undeliverable or role address).
	CodeInvalidResource
)

// APIError is a non-success response from the Mailchimp API.
type APIError struct {
	Code   Code
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mailchimp: %s (%d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("mailchimp: %s (%d)", e.Title, e.Status)
}

// codeForTitle maps the upstream error vocabulary onto Code.
func codeForTitle(title string) Code {
	switch title {
	case "Member Exists":
		return CodeMemberExists
	case "Invalid Resource":
		return CodeInvalidResource
	default:
		return CodeOther
	}
}
