package requests

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// String accepts any JSON scalar where a string is expected. Submissions are
// loosely typed: numbers and booleans are kept as their literal text, so
// {"name": 123} is the name "123" and null counts as absent. Objects and
// arrays are still rejected.
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = String(str)
		return nil
	case '{', '[':
		return errors.Errorf("cannot decode %s as a string", data[:1])
	default:
		*s = String(data)
		return nil
	}
}

// Note is the payload of a note submission.
type Note struct {
	Name    String `json:"name"`
	Message String `json:"message"`
	Email   String `json:"email"`
}

// NoteDelete identifies the note to remove by its creation instant.
type NoteDelete struct {
	CreatedAt string `json:"createdAt"`
}

// Auth is the payload of a password check.
type Auth struct {
	Password string `json:"password"`
}
