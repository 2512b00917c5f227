package note

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/foomo/guestbook/requests"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TimeFormat renders creation instants the way the existing clients expect
// them: millisecond precision in UTC, byte-compatible with JavaScript's
// Date.toISOString. Lexicographic order of rendered values equals
// chronological order.
const TimeFormat = "2006-01-02T15:04:05.000Z"

const (
	maxNameLen    = 60
	maxMessageLen = 500
	maxEmailLen   = 120

	// DefaultName is substituted when a submission carries no usable name.
	DefaultName = "Guest"
)

// Validation errors carry the exact messages of the public API contract.
var (
	ErrMessageRequired = errors.New("Message is required")
	ErrMessageTooLong  = errors.New("Message too long (max 500)")
)

// IsValidation reports whether err was caused by an invalid submission.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMessageRequired) || errors.Is(err, ErrMessageTooLong)
}

// Note is a single guestbook entry. CreatedAt doubles as the logical
// identity of the note and is immutable once assigned.
type Note struct {
	Name      string `json:"name"`
	Message   string `json:"message"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Decode normalizes and validates an inbound submission and stamps it with
// the given creation instant.
//
// Limits count runes. Clients measuring UTF-16 code units count surrogate
// pairs twice and may reject astral-plane text that is accepted here.
func Decode(payload requests.Note, userAgent string, now time.Time) (Note, error) {
	name := truncate(strings.TrimSpace(string(payload.Name)), maxNameLen)
	if name == "" {
		name = DefaultName
	}

	message := strings.TrimSpace(string(payload.Message))
	if message == "" {
		return Note{}, ErrMessageRequired
	}
	if len([]rune(message)) > maxMessageLen {
		return Note{}, ErrMessageTooLong
	}

	return Note{
		Name:      name,
		Message:   message,
		Email:     truncate(strings.TrimSpace(string(payload.Email)), maxEmailLen),
		CreatedAt: now.UTC().Format(TimeFormat),
		UserAgent: userAgent,
	}, nil
}

// Encode renders the canonical stored representation of a note.
func Encode(n Note) ([]byte, error) {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode note")
	}
	return data, nil
}

// Unmarshal reads a stored note back from its JSON representation.
func Unmarshal(data []byte) (Note, error) {
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, errors.Wrap(err, "failed to parse note")
	}
	return n, nil
}

func truncate(s string, maxLen int) string {
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen])
	}
	return s
}
