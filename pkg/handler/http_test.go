package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/foomo/guestbook/pkg/auth"
	"github.com/foomo/guestbook/pkg/note"
	"github.com/foomo/guestbook/pkg/repo"
)

func newDurableHandler(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })

	l := zaptest.NewLogger(t)
	return NewHTTP(l,
		repo.New(l, repo.NewBlobStorageFromBucket(bucket, "notes/")),
		auth.New(l, auth.WithDelay(10*time.Millisecond)),
	)
}

func newEphemeralHandler(t *testing.T) http.Handler {
	t.Helper()
	l := zaptest.NewLogger(t)
	return NewHTTP(l,
		repo.New(l, repo.NewEphemeralStorage()),
		auth.New(l, auth.WithDelay(10*time.Millisecond)),
	)
}

// brokenStorage wraps a healthy backend and fails selected operations so the
// internal-error responses can be exercised end to end.
type brokenStorage struct {
	repo.Storage
	failList   bool
	failWrite  bool
	failDelete bool
}

func (s *brokenStorage) List(ctx context.Context, prefix string) ([]string, error) {
	if s.failList {
		return nil, assert.AnError
	}
	return s.Storage.List(ctx, prefix)
}

func (s *brokenStorage) Write(ctx context.Context, key string, data []byte, contentType string) error {
	if s.failWrite {
		return assert.AnError
	}
	return s.Storage.Write(ctx, key, data, contentType)
}

func (s *brokenStorage) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return assert.AnError
	}
	return s.Storage.Delete(ctx, key)
}

func newBrokenHandler(t *testing.T) (http.Handler, *brokenStorage) {
	t.Helper()
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })

	storage := &brokenStorage{Storage: repo.NewBlobStorageFromBucket(bucket, "notes/")}
	l := zaptest.NewLogger(t)
	return NewHTTP(l,
		repo.New(l, storage),
		auth.New(l, auth.WithDelay(10*time.Millisecond)),
	), storage
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateNote_Persisted(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["id"])

	// the created note shows up in the listing with the message unchanged
	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "hi", notes[0].Message)
	assert.Equal(t, note.DefaultName, notes[0].Name)
}

func TestCreateNote_Ephemeral(t *testing.T) {
	h := newEphemeralHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["persisted"])

	// never shows up in a later listing
	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestCreateNote_CapturesUserAgent(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, http.Header{
		"User-Agent": []string{"test-agent/1.0"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "test-agent/1.0", notes[0].UserAgent)
}

func TestCreateNote_Validation(t *testing.T) {
	h := newDurableHandler(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing message", `{}`, "Message is required"},
		{"empty message", `{"message":""}`, "Message is required"},
		{"too long", `{"message":"` + strings.Repeat("x", 501) + `"}`, "Message too long (max 500)"},
		{"invalid json", `{not json`, "Invalid JSON body"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/api/notes", test.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, test.message, decodeBody(t, w)["error"])
		})
	}
}

func TestCreateNote_ScalarFieldsCoerced(t *testing.T) {
	h := newDurableHandler(t)

	// loosely typed clients may send numbers or booleans for the text fields
	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"name":123,"message":42}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "123", notes[0].Name)
	assert.Equal(t, "42", notes[0].Message)
}

func TestListNotes_Ordering(t *testing.T) {
	h := newDurableHandler(t)

	for _, message := range []string{"one", "two", "three"} {
		w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"`+message+`"}`, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		// distinct millisecond timestamps
		time.Sleep(2 * time.Millisecond)
	}

	w := doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 3)
	assert.Equal(t, "three", notes[0].Message)
	assert.Equal(t, "one", notes[2].Message)
}

func TestDeleteNote(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	createdAt := notes[0].CreatedAt

	w = doRequest(t, h, http.MethodDelete, "/api/notes", `{"createdAt":"`+createdAt+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["deleted"])
	assert.NotContains(t, body, "persisted")

	// gone from the listing
	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	// deleting again is not found, not an error
	w = doRequest(t, h, http.MethodDelete, "/api/notes", `{"createdAt":"`+createdAt+`"}`, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Note not found", decodeBody(t, w)["error"])
}

func TestListNotes_StorageError(t *testing.T) {
	h, storage := newBrokenHandler(t)
	storage.failList = true

	w := doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}

func TestCreateNote_StorageError(t *testing.T) {
	h, storage := newBrokenHandler(t)
	storage.failWrite = true

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}

func TestDeleteNote_StorageError(t *testing.T) {
	h, storage := newBrokenHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/notes", `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	var notes []note.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)

	storage.failDelete = true
	w = doRequest(t, h, http.MethodDelete, "/api/notes", `{"createdAt":"`+notes[0].CreatedAt+`"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}

func TestDeleteNote_CreatedAtRequired(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodDelete, "/api/notes", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "createdAt is required", decodeBody(t, w)["error"])
}

func TestDeleteNote_Ephemeral(t *testing.T) {
	h := newEphemeralHandler(t)

	w := doRequest(t, h, http.MethodDelete, "/api/notes", `{"createdAt":"2024-01-01T00:00:00.000Z"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["deleted"])
	assert.Equal(t, false, body["persisted"])
	assert.Equal(t, true, body["simulated"])
}

func TestAuthenticate(t *testing.T) {
	h := newDurableHandler(t)

	start := time.Now()
	w := doRequest(t, h, http.MethodPost, "/api/auth", `{"password":"`+auth.DefaultPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Authentication successful", body["message"])

	token, ok := body["sessionToken"].(string)
	require.True(t, ok)
	parts := strings.Split(token, ".")
	require.GreaterOrEqual(t, len(parts), 2)
	issued, err := strconv.ParseInt(parts[len(parts)-1], 36, 64)
	require.NoError(t, err)
	assert.WithinDuration(t, start, time.UnixMilli(issued), time.Second)

	// the issued token verifies
	w = doRequest(t, h, http.MethodGet, "/api/auth", "", http.Header{
		"Authorization": []string{"Bearer " + token},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["valid"])
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	delay := 50 * time.Millisecond
	l := zaptest.NewLogger(t)
	h := NewHTTP(l,
		repo.New(l, repo.NewEphemeralStorage()),
		auth.New(l, auth.WithDelay(delay)),
	)

	start := time.Now()
	w := doRequest(t, h, http.MethodPost, "/api/auth", `{"password":"nope"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid password", decodeBody(t, w)["error"])
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestAuthenticate_BadRequests(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodPost, "/api/auth", `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", decodeBody(t, w)["error"])

	w = doRequest(t, h, http.MethodPost, "/api/auth", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password is required", decodeBody(t, w)["error"])
}

func TestVerifyToken_Unauthorized(t *testing.T) {
	h := newDurableHandler(t)

	w := doRequest(t, h, http.MethodGet, "/api/auth", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", decodeBody(t, w)["error"])

	w = doRequest(t, h, http.MethodGet, "/api/auth", "", http.Header{
		"Authorization": []string{"Bearer garbage"},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, w)["error"])
}

func TestBasePath(t *testing.T) {
	l := zaptest.NewLogger(t)
	h := NewHTTP(l,
		repo.New(l, repo.NewEphemeralStorage()),
		auth.New(l, auth.WithDelay(10*time.Millisecond)),
		WithBasePath("/guestbook"),
	)

	w := doRequest(t, h, http.MethodGet, "/guestbook/api/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
