package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used on the wire (millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrAccountNotFound is returned by account repositories when a lookup misses.
// Services translate it into a NotFound or InvalidCredentials error.
var ErrAccountNotFound = errors.New("account not found")

// ErrSessionNotFound is returned by web session stores for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Error is the transport-safe application error. The code is the variant tag;
// the HTTP status is never stored, only derived from the code.
type Error struct {
	code      ErrorCode
	message   string
	details   map[string]any
	timestamp string
	path      string
	i18nKey   string
	cause     error
}

// Envelope is the wire shape of an Error.
type Envelope struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path,omitempty"`
	I18nKey    string         `json:"i18nKey,omitempty"`
}

// NewError builds an Error stamped with the current time. It never fails: a
// code outside the enumeration is replaced by UNKNOWN_ERROR.
func NewError(code ErrorCode, message string, details map[string]any) *Error {
	if !code.Valid() {
		details = withDetail(details, "originalCode", string(code))
		code = CodeUnknown
	}
	return &Error{
		code:      code,
		message:   message,
		details:   details,
		timestamp: time.Now().UTC().Format(TimestampLayout),
	}
}

func (e *Error) Code() ErrorCode         { return e.code }
func (e *Error) Message() string         { return e.message }
func (e *Error) StatusCode() int         { return e.code.HTTPStatus() }
func (e *Error) Details() map[string]any { return e.details }
func (e *Error) Timestamp() string       { return e.timestamp }
func (e *Error) Path() string            { return e.path }
func (e *Error) I18nKey() string         { return e.i18nKey }

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// WithI18nKey attaches a translation key. Returns e for chaining at construction.
func (e *Error) WithI18nKey(key string) *Error {
	e.i18nKey = key
	return e
}

// WithPath records the request path the error was produced for.
func (e *Error) WithPath(path string) *Error {
	e.path = path
	return e
}

// WithCause keeps the underlying error for logging. The cause is never serialized.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// ToJSON projects the error to its wire envelope.
func (e *Error) ToJSON() Envelope {
	return Envelope{
		Code:       e.code,
		Message:    e.message,
		StatusCode: e.StatusCode(),
		Details:    e.details,
		Timestamp:  e.timestamp,
		Path:       e.path,
		I18nKey:    e.i18nKey,
	}
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*e = *FromEnvelope(env)
	return nil
}

// FromEnvelope reconstructs a generic Error from a wire envelope. The status is
// re-derived from the code; the envelope's statusCode is informational only.
func FromEnvelope(env Envelope) *Error {
	e := NewError(env.Code, env.Message, env.Details)
	if env.Timestamp != "" {
		e.timestamp = env.Timestamp
	}
	e.path = env.Path
	e.i18nKey = env.I18nKey
	return e
}

// FromJSON decodes an envelope. It fails when the payload is not an envelope
// (missing code, message or timestamp).
func FromJSON(data []byte) (*Error, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode error envelope: %w", err)
	}
	for _, field := range []string{"code", "message", "statusCode", "timestamp"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("decode error envelope: missing %q", field)
		}
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode error envelope: %w", err)
	}
	return FromEnvelope(env), nil
}

// FromError returns err as-is when it already is (or wraps) an *Error, and
// otherwise wraps it into fallback, keeping the original type and message in
// details.
func FromError(err error, fallback ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewError(fallback, err.Error(), map[string]any{
		"originalError": fmt.Sprintf("%T", err),
		"message":       err.Error(),
	}).WithCause(err)
}

// CodeOf returns the code carried by err, UNKNOWN_ERROR for foreign errors and
// "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.code
	}
	return CodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func withDetail(details map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out[key] = value
	return out
}
