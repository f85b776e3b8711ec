// In-process integration test: the real router, service, session manager
// and Gemini client wired together, with only the upstream API faked.
package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/backend/internal/api"
	"docuchat/backend/internal/config"
	"docuchat/backend/internal/llm"
	"docuchat/backend/internal/model"
	"docuchat/backend/internal/service"
	"docuchat/backend/internal/session"
)

func startBackend(t *testing.T) (*httptest.Server, *httptest.Server) {
	t.Helper()

	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":countTokens"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"totalTokens": 555}`))
		case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte(
				"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"According to notes.md, \"}]}}]}\n\n" +
					"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"revenue grew 12%.\"}]}}]}\n\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(gemini.Close)

	cfg := &config.Config{
		GeminiBaseURL:         gemini.URL,
		GeminiModel:           "gemini-2.5-flash",
		RequestTimeoutSeconds: 10,
		UploadPolicy:          config.UploadPolicySkip,
		DefaultLanguage:       "english",
	}

	sessions := session.NewManager(time.Hour)
	t.Cleanup(sessions.Stop)
	provider := llm.NewGeminiProvider(cfg.GeminiBaseURL, 10*time.Second)
	chatService := service.NewChatService(sessions, provider, cfg)
	router := api.NewRouter(api.NewChatHandler(chatService), t.TempDir())

	backend := httptest.NewServer(router)
	t.Cleanup(backend.Close)
	return backend, gemini
}

func createSession(t *testing.T, backend *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(backend.URL+"/api/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

func fetchTranscript(t *testing.T, backend *httptest.Server, sessionID string) []model.Message {
	t.Helper()
	resp, err := http.Get(backend.URL + "/api/v1/sessions/" + sessionID + "/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var messages []model.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&messages))
	return messages
}

func TestFullTurnOverHTTP(t *testing.T) {
	backend, _ := startBackend(t)
	sessionID := createSession(t, backend)

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	require.NoError(t, form.WriteField("question", "What was the revenue growth?"))
	part, err := form.CreateFormFile("files", "notes.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("Revenue grew 12%"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost,
		backend.URL+"/api/v1/sessions/"+sessionID+"/messages", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Api-Key", "integration-test-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw := &bytes.Buffer{}
	_, err = raw.ReadFrom(resp.Body)
	require.NoError(t, err)
	streamed := raw.String()
	assert.Contains(t, streamed, `"tokens":555`)
	assert.Contains(t, streamed, "revenue grew 12%.")
	assert.Contains(t, streamed, `"done":true`)

	transcript := fetchTranscript(t, backend, sessionID)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.RoleHuman, transcript[0].Role)
	assert.Equal(t, "What was the revenue growth?", transcript[0].Content)
	assert.Equal(t, model.RoleAI, transcript[1].Role)
	assert.Equal(t, "According to notes.md, revenue grew 12%.", transcript[1].Content)
}

func TestResetClearsTranscriptOverHTTP(t *testing.T) {
	backend, _ := startBackend(t)
	sessionID := createSession(t, backend)

	resp, err := http.Post(backend.URL+"/api/v1/sessions/"+sessionID+"/reset", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, fetchTranscript(t, backend, sessionID))
}

func TestHealthz(t *testing.T) {
	backend, _ := startBackend(t)
	resp, err := http.Get(backend.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
