package registration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  &Error{Type: ErrTypeRejected, Message: "/api/owner/ returned status 400"},
			want: "Backend Rejected: /api/owner/ returned status 400",
		},
		{
			name: "with cause",
			err:  &Error{Type: ErrTypeTransport, Message: "POST request failed", Err: errors.New("boom")},
			want: "Transport Error: POST request failed (caused by: boom)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewParseError("bad body", OwnerPath, cause)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("submit owner: %w", err)
	assert.Equal(t, ErrTypeParse, mustAs(t, wrapped).Type)
}

func mustAs(t *testing.T, err error) *Error {
	t.Helper()
	e, ok := asError(err)
	require.True(t, ok, "expected *Error, got %T", err)
	return e
}

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantType: ErrTypeTimeout,
		},
		{
			name:     "cancelled",
			err:      &url.Error{Op: "Post", URL: "http://x", Err: context.Canceled},
			wantType: ErrTypeCancelled,
		},
		{
			name:     "dns",
			err:      &net.DNSError{Name: "registry.local", Err: "no such host"},
			wantType: ErrTypeDNS,
		},
		{
			name:     "refused",
			err:      &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType: ErrTypeConnectionRefused,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantType:    ErrTypeTransport,
			wantSubtype: NetworkErrorHostUnreachable,
		},
		{
			name:        "network unreachable inside url error",
			err:         &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}},
			wantType:    ErrTypeTransport,
			wantSubtype: NetworkErrorNetworkUnreachable,
		},
		{
			name:     "generic",
			err:      errors.New("connection reset"),
			wantType: ErrTypeTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err, OwnerPath)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantSubtype, got.NetworkSubtype)
			assert.Equal(t, OwnerPath, got.Endpoint)
			assert.True(t, IsTransportError(got))
		})
	}

	assert.Nil(t, ClassifyNetworkError(nil, ""))
}

func TestRejectionDetails(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"empty", "", nil},
		{"field errors sorted", `{"b": ["second"], "a": ["first", "again"]}`, []string{"a: first", "a: again", "b: second"}},
		{"detail", `{"detail": "Not found."}`, []string{"Not found."}},
		{"non field", `{"non_field_errors": ["Duplicate owner."]}`, []string{"Duplicate owner."}},
		{"list", `["room_number is required"]`, []string{"room_number is required"}},
		{"html page", "<html><body><h1>Server Error (500)</h1>\n<p>Tom &amp; Jerry</p></body></html>", []string{"Server Error (500) Tom & Jerry"}},
		{"nested value", `{"rooms": {"0": "bad"}}`, []string{`rooms: {"0": "bad"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RejectionDetails([]byte(tt.body)))
		})
	}
}

func TestRejectionDetails_Truncates(t *testing.T) {
	body := "<p>" + strings.Repeat("x", 500) + "</p>"
	got := RejectionDetails([]byte(body))
	require.Len(t, got, 1)
	assert.Len(t, got[0], maxDetailLength+3)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError([]string{"ownercontact", "ownerlastname"})
	assert.True(t, IsValidationError(err))
	assert.False(t, IsTransportError(err))
	assert.Equal(t, []string{"ownercontact", "ownerlastname"}, err.Fields)
	assert.Contains(t, err.Error(), "ownercontact, ownerlastname")
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", NewValidationError([]string{"x"}), "Please correct the highlighted fields"},
		{"rejected 400", NewRejectedError(400, OwnerPath, nil), "Registration was not accepted (HTTP 400)"},
		{"rejected 500", NewRejectedError(502, OwnerPath, nil), "Registration server error (HTTP 502)"},
		{"timeout", &Error{Type: ErrTypeTimeout}, "Registration server not responding (timeout)"},
		{"refused", &Error{Type: ErrTypeConnectionRefused}, "Registration server is not running"},
		{"plain error", errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortMessage(tt.err))
		})
	}
}

func TestTroubleshootingHint(t *testing.T) {
	rejected := NewRejectedError(400, OwnerPath, []byte(`{"ownercontact": ["Invalid number."]}`))
	hint := TroubleshootingHint(rejected)
	assert.Contains(t, hint, "ownercontact: Invalid number.")
	assert.Contains(t, hint, "submit again")

	validation := TroubleshootingHint(NewValidationError([]string{"boarderage"}))
	assert.Contains(t, validation, "• boarderage")

	assert.Contains(t, TroubleshootingHint(&Error{Type: ErrTypeConnectionRefused}), "bhkiosk ping")
	assert.Equal(t, "An unexpected error occurred. Please try again.", TroubleshootingHint(errors.New("x")))
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "Validation Error", ErrTypeValidation.String())
	assert.Equal(t, "Backend Rejected", ErrTypeRejected.String())
	assert.Equal(t, "ErrorType(99)", ErrorType(99).String())
}
