package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docuchat/backend/internal/apperr"
	"docuchat/backend/internal/interfaces"
	"docuchat/backend/internal/model"
	"docuchat/backend/internal/service"
)

// Uploads are buffered in memory only for the duration of one turn.
const maxUploadMemory = 32 << 20

// apiKeyHeader carries the user-supplied generation credential. The server
// never stores it; it is forwarded to the provider per turn.
const apiKeyHeader = "X-Api-Key"

type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// AskRequest is the form DTO for a question turn.
type AskRequest struct {
	Question string `validate:"required,min=1" example:"What was the revenue growth?"`
	Language string `validate:"omitempty,oneof=english indonesian" example:"english"`
}

// AskAck acknowledges how many uploads were received for the turn.
type AskAck struct {
	FilesReceived int `json:"files_received"`
}

// HandleCreateSession godoc
// @Summary      Create a session
// @Description  Initializes a new empty chat session and returns its id.
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Router       /v1/sessions [post]
func (h *ChatHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.service.CreateSession()
	slog.Info("Session created", "session_id", id)
	respondWithJSON(w, http.StatusCreated, SessionResponse{SessionID: id})
}

// HandleGetTranscript godoc
// @Summary      Get the transcript
// @Description  Returns every message exchanged in the session, in order.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {array}   model.Message
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/messages [get]
func (h *ChatHandler) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.service.Transcript(sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	respondWithJSON(w, http.StatusOK, messages)
}

// HandleReset godoc
// @Summary      Clear the conversation
// @Description  Empties the session transcript so a fresh conversation can start.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/reset [post]
func (h *ChatHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.Reset(sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleDeleteSession godoc
// @Summary      Tear down a session
// @Description  Destroys the session and its in-memory transcript.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [delete]
func (h *ChatHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.DeleteSession(sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleAsk godoc
// @Summary      Ask a question
// @Description  Submits a question with optional document uploads and streams the grounded answer over SSE.
// @Tags         Chat
// @Accept       mpfd
// @Produce      text/event-stream
// @Param        sessionID  path      string  true   "Session ID"
// @Param        question   formData  string  true   "The question to answer"
// @Param        language   formData  string  false  "Answer language (english or indonesian)"
// @Param        files      formData  file    false  "Documents to ground the answer in (pdf, txt, md)"
// @Param        X-Api-Key  header    string  true   "Generation API key"
// @Success      200  {object}  model.StreamChunk
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/messages [post]
func (h *ChatHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Everything that can fail fast does so before the SSE stream starts,
	// so those failures arrive as plain HTTP status codes.
	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		respondWithError(w, apperr.ErrConfiguration)
		return
	}
	if _, err := h.service.Transcript(sessionID); err != nil {
		respondWithError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondWithError(w, apperr.ErrValidation)
		return
	}
	req := AskRequest{
		Question: r.FormValue("question"),
		Language: r.FormValue("language"),
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	files, err := collectUploads(r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeStreamEvent(w, AskAck{FilesReceived: len(files)}); err != nil {
		slog.Warn("Client disconnected before streaming started", "session_id", sessionID)
		return
	}

	streamChan := make(chan model.StreamChunk)
	go h.service.StreamTurn(r.Context(), sessionID, &service.TurnInput{
		APIKey:   apiKey,
		Question: req.Question,
		Language: req.Language,
		Files:    files,
	}, streamChan)

	for chunk := range streamChan {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected during stream", "session_id", sessionID)
			break
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Warn("Failed to write stream event, client likely gone", "error", err)
			break
		}
	}
	// Drain whatever is left so the pipeline goroutine can finish and
	// record the turn even after a disconnect.
	for range streamChan {
	}
}

// collectUploads reads every "files" part of the multipart form into
// memory. Nothing is written to disk; the bytes live only for this turn.
func collectUploads(r *http.Request) ([]model.UploadedFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["files"]
	files := make([]model.UploadedFile, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		closeErr := part.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			slog.Warn("Failed to close multipart file", "file", header.Filename, "error", closeErr)
		}
		files = append(files, model.UploadedFile{Name: header.Filename, Data: data})
	}
	return files, nil
}
