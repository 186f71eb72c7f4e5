package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/url"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/microcosm-cc/bluemonday"
)

// ErrorType represents the category of a submission failure
type ErrorType int

const (
	// ErrTypeValidation means the form failed local validation; nothing was sent
	ErrTypeValidation ErrorType = iota
	// ErrTypeRejected means the backend answered with a non-2xx status
	ErrTypeRejected
	// ErrTypeTransport indicates a generic network failure
	ErrTypeTransport
	// ErrTypeTimeout indicates the request did not complete in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the backend address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the backend hostname could not be resolved
	ErrTypeDNS
	// ErrTypeParse indicates a malformed request or response body
	ErrTypeParse
	// ErrTypeCancelled indicates the caller abandoned the request
	ErrTypeCancelled
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeRejected:
		return "Backend Rejected"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every failed submission.
type Error struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (rejections only)
	Details        []string            // Backend-provided reasons (rejections only)
	Fields         []string            // Invalid field names (validation only)
	Endpoint       string              // Request path, when a request was attempted
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed Error
func ClassifyNetworkError(err error, endpoint string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Type:     ErrTypeTimeout,
			Message:  "Request timed out",
			Err:      err,
			Endpoint: endpoint,
		}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{
			Type:     ErrTypeCancelled,
			Message:  "Request cancelled",
			Err:      err,
			Endpoint: endpoint,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:     ErrTypeDNS,
			Message:  fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:      err,
			Endpoint: endpoint,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{
				Type:     ErrTypeConnectionRefused,
				Message:  "Backend refused connection",
				Err:      err,
				Endpoint: endpoint,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{
				Type:           ErrTypeTransport,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{
				Type:           ErrTypeTransport,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &Error{
		Type:     ErrTypeTransport,
		Message:  "Network error occurred",
		Err:      err,
		Endpoint: endpoint,
	}
}

// NewTransportError creates a network-level error with automatic classification
func NewTransportError(message, endpoint string, err error) *Error {
	classified := ClassifyNetworkError(err, endpoint)
	if classified == nil {
		return &Error{Type: ErrTypeTransport, Message: message, Endpoint: endpoint}
	}
	classified.Message = message
	return classified
}

// NewValidationError reports fields that block submission.
func NewValidationError(fields []string) *Error {
	return &Error{
		Type:    ErrTypeValidation,
		Message: fmt.Sprintf("%d field(s) need attention: %s", len(fields), strings.Join(fields, ", ")),
		Fields:  append([]string(nil), fields...),
	}
}

// NewRejectedError builds a rejection from the backend's status and body.
func NewRejectedError(statusCode int, endpoint string, body []byte) *Error {
	details := RejectionDetails(body)
	msg := fmt.Sprintf("%s returned status %d", endpoint, statusCode)
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	return &Error{
		Type:       ErrTypeRejected,
		Message:    msg,
		StatusCode: statusCode,
		Details:    details,
		Endpoint:   endpoint,
	}
}

// NewParseError creates a parsing error
func NewParseError(message, endpoint string, err error) *Error {
	return &Error{
		Type:     ErrTypeParse,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// maxDetailLength caps free-text rejection bodies shown to the user.
const maxDetailLength = 200

var textPolicy = bluemonday.StrictPolicy()

// RejectionDetails flattens a rejection body into display lines.
// Field error objects ({"field": ["msg"]}) become "field: msg"; "detail" and
// "non_field_errors" keep just the message. Anything that is not JSON has
// its markup stripped and is truncated.
func RejectionDetails(body []byte) []string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []string
		for _, k := range keys {
			for _, msg := range messages(obj[k]) {
				if k == "detail" || k == "non_field_errors" || k == "error" {
					out = append(out, msg)
				} else {
					out = append(out, k+": "+msg)
				}
			}
		}
		return out
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list
	}

	text := html.UnescapeString(textPolicy.Sanitize(string(trimmed)))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if len(text) > maxDetailLength {
		text = text[:maxDetailLength] + "..."
	}
	return []string{text}
}

func messages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return []string{string(raw)}
}

func asError(err error) (*Error, bool) {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr, true
	}
	return nil, false
}

// IsValidationError checks if an error is a local validation failure
func IsValidationError(err error) bool {
	e, ok := asError(err)
	return ok && e.Type == ErrTypeValidation
}

// IsBackendRejected checks if the backend answered with a non-2xx status
func IsBackendRejected(err error) bool {
	e, ok := asError(err)
	return ok && e.Type == ErrTypeRejected
}

// IsTransportError checks if the request failed in transit (network or parse failure)
func IsTransportError(err error) bool {
	e, ok := asError(err)
	if !ok {
		return false
	}
	switch e.Type {
	case ErrTypeTransport, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeParse, ErrTypeCancelled:
		return true
	}
	return false
}

// IsTimeout checks if an error is a request timeout
func IsTimeout(err error) bool {
	e, ok := asError(err)
	return ok && e.Type == ErrTypeTimeout
}

// ShortMessage returns a one-line message suitable for the kiosk screen
func ShortMessage(err error) string {
	e, ok := asError(err)
	if !ok {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeValidation:
		return "Please correct the highlighted fields"
	case ErrTypeRejected:
		if e.StatusCode >= 500 {
			return fmt.Sprintf("Registration server error (HTTP %d)", e.StatusCode)
		}
		return fmt.Sprintf("Registration was not accepted (HTTP %d)", e.StatusCode)
	case ErrTypeTimeout:
		return "Registration server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Registration server is not running"
	case ErrTypeDNS:
		return "Cannot find the registration server"
	case ErrTypeTransport:
		switch e.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Registration server unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check the kiosk's connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeParse:
		return "Unexpected reply from the registration server"
	case ErrTypeCancelled:
		return "Submission cancelled"
	default:
		return e.Message
	}
}

// TroubleshootingHint returns multi-line advice for the failure screen
func TroubleshootingHint(err error) string {
	e, ok := asError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeValidation:
		hint := []string{"Some entries are missing or invalid:"}
		for _, f := range e.Fields {
			hint = append(hint, "  • "+f)
		}
		return strings.Join(hint, "\n")

	case ErrTypeRejected:
		hint := []string{"The registration server did not accept this entry."}
		if len(e.Details) > 0 {
			hint = append(hint, "Reasons given:")
			for _, d := range e.Details {
				hint = append(hint, "  • "+d)
			}
		}
		if e.StatusCode >= 500 {
			hint = append(hint, "This is a server problem. Your entries are kept; try again shortly.")
		} else {
			hint = append(hint, "Correct the entries above and submit again.")
		}
		return strings.Join(hint, "\n")

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The registration server did not respond in time.",
			"Troubleshooting:",
			"  • Check the kiosk's network connection",
			"  • Ask staff to confirm the registration server is running",
			"  • Your entries are kept; submit again when ready",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at the configured server address.",
			"Troubleshooting:",
			"  • Start the registration server",
			"  • Check backend.url in the kiosk configuration",
			"  • Run 'bhkiosk ping' to test the connection",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"The server hostname could not be resolved.",
			"Troubleshooting:",
			"  • Use the server's IP address in backend.url",
			"  • Enable backend.discover to find it over mDNS",
		}, "\n")

	case ErrTypeParse:
		return strings.Join([]string{
			"The server's reply could not be read.",
			"The entry may or may not have been saved; ask staff to check before resubmitting.",
		}, "\n")

	case ErrTypeCancelled:
		return "The submission was cancelled before it completed."

	default:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check the kiosk's network cable or WiFi",
			"  • Run 'bhkiosk ping' to test the connection",
		}, "\n")
	}
}
