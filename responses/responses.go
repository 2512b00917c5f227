package responses

// Error is the body of every non-2xx reply. Causes stay in the server logs.
type Error struct {
	Error string `json:"error"`
}

// NoteCreated reports a durably stored note.
type NoteCreated struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// NoteAccepted reports a note that was accepted without durable storage.
type NoteAccepted struct {
	OK        bool `json:"ok"`
	Persisted bool `json:"persisted"`
}

// NoteDeleted reports the outcome of a delete. Persisted and Simulated are
// only set in ephemeral mode, where deletion is reported as successful
// without any storage being touched.
type NoteDeleted struct {
	OK        bool  `json:"ok"`
	Deleted   bool  `json:"deleted"`
	Persisted *bool `json:"persisted,omitempty"`
	Simulated bool  `json:"simulated,omitempty"`
}

// Auth is a successful password check.
type Auth struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"sessionToken"`
	Message      string `json:"message"`
}

// TokenValid is a successful token verification.
type TokenValid struct {
	Valid bool `json:"valid"`
}
