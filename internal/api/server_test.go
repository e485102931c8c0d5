package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/echorealms/internal/archive"
	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/domain"
	"github.com/pbaille/echorealms/internal/storyteller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memShelf struct {
	saved   []string
	deleted []string
	fail    error
}

func (m *memShelf) SaveStory(s domain.Story) error {
	if m.fail != nil {
		return m.fail
	}
	m.saved = append(m.saved, s.ID)
	return nil
}

func (m *memShelf) DeleteStory(id string) error {
	if m.fail != nil {
		return m.fail
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type firstPicker struct{}

func (firstPicker) IntN(int) int { return 0 }

func newTestServer(shelf Shelf) (*Server, *archive.Archive) {
	a := archive.New()
	s := New(classifier.Default(), storyteller.New(firstPicker{}), a, shelf, zap.NewNop(), ":0")
	s.Now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return s, a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testStory(id string) domain.Story {
	return domain.Story{
		ID:         id,
		Title:      "The Crimson Storm",
		Content:    "Within the Scarlet Peaks",
		Emotion:    domain.Anger,
		Intensity:  0.7,
		CreatedAt:  time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
		SourceText: "so angry",
	}
}

func storyJSON(t *testing.T, s domain.Story) string {
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestScan(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := do(t, s.Handler(), http.MethodPost, "/scan", `{"text":"I feel happy and excited today"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.Joy, resp.Emotion)
	assert.InDelta(t, 1.0, resp.Intensity, 1e-9)
	assert.NotEmpty(t, resp.Keywords)
}

func TestScanRejectsBlankText(t *testing.T) {
	s, _ := newTestServer(nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/scan", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text is required")

	rec = do(t, h, http.MethodPost, "/stories", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeaveDoesNotSave(t *testing.T) {
	s, a := newTestServer(nil)
	rec := do(t, s.Handler(), http.MethodPost, "/stories", `{"text":"I feel happy and excited today"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp WeaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.Joy, resp.Story.Emotion)
	assert.Equal(t, "The Luminous Garden", resp.Story.Title)
	assert.Contains(t, resp.Story.Content, "100%")
	assert.Equal(t, "I feel happy and excited today", resp.Story.SourceText)
	assert.Equal(t, 0, a.Len())
}

func TestArchiveLifecycle(t *testing.T) {
	shelf := &memShelf{}
	s, a := newTestServer(shelf)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-1")))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-2")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/archive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Stories []domain.Story `json:"stories"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "story-2", list.Stories[0].ID)

	rec = do(t, h, http.MethodGet, "/archive/story-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/archive/story-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/archive/missing", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/archive/story-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, []string{"story-1", "story-2"}, shelf.saved)
	assert.Equal(t, []string{"story-1", "missing"}, shelf.deleted)
}

func TestSaveSameStoryTwice(t *testing.T) {
	s, a := newTestServer(nil)
	h := s.Handler()

	do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-1")))
	do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-2")))
	do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-1")))

	list := a.List()
	require.Len(t, list, 2)
	assert.Equal(t, "story-1", list[0].ID)
}

func TestSaveStoryValidation(t *testing.T) {
	s, _ := newTestServer(nil)
	h := s.Handler()

	bad := testStory("")
	rec := do(t, h, http.MethodPost, "/archive", storyJSON(t, bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad = testStory("x")
	bad.Emotion = "bliss"
	rec = do(t, h, http.MethodPost, "/archive", storyJSON(t, bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown emotion")

	bad = testStory("x")
	bad.Intensity = 2
	rec = do(t, h, http.MethodPost, "/archive", storyJSON(t, bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// below the floor a classification can produce
	bad = testStory("x")
	bad.Intensity = 0.2
	rec = do(t, h, http.MethodPost, "/archive", storyJSON(t, bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "0.4")

	edge := testStory("floor")
	edge.Intensity = 0.4
	rec = do(t, h, http.MethodPost, "/archive", storyJSON(t, edge))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestShelfFailure(t *testing.T) {
	s, a := newTestServer(&memShelf{fail: errors.New("disk full")})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/archive", storyJSON(t, testStory("story-1")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, a.Len())
}

func TestExport(t *testing.T) {
	s, a := newTestServer(nil)
	a.Add(testStory("story-1"))
	a.Add(testStory("story-2"))

	rec := do(t, s.Handler(), http.MethodGet, "/archive/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="echorealms-archive-2024-03-09.json"`, rec.Header().Get("Content-Disposition"))

	parsed, err := archive.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "story-2", parsed[0].ID)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("[")))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := do(t, s.Handler(), http.MethodOptions, "/archive", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
