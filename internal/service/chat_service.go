package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docuchat/backend/internal/apperr"
	"docuchat/backend/internal/assembler"
	"docuchat/backend/internal/config"
	"docuchat/backend/internal/llm"
	"docuchat/backend/internal/model"
	"docuchat/backend/internal/prompt"
	"docuchat/backend/internal/session"
)

// Low temperature for factual accuracy over grounded documents.
const generationTemperature = 0.3

// TurnInput carries everything the client submits for one turn. Files are
// held in memory for the duration of assembly only.
type TurnInput struct {
	APIKey   string
	Question string
	Language string
	Files    []model.UploadedFile
}

type ChatService struct {
	sessions *session.Manager
	llm      llm.Provider
	cfg      *config.Config
}

func NewChatService(sessions *session.Manager, provider llm.Provider, cfg *config.Config) *ChatService {
	return &ChatService{sessions: sessions, llm: provider, cfg: cfg}
}

func (s *ChatService) CreateSession() string {
	return s.sessions.Create()
}

func (s *ChatService) Transcript(sessionID string) ([]model.Message, error) {
	store, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

func (s *ChatService) Reset(sessionID string) error {
	store, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	store.Reset()
	return nil
}

func (s *ChatService) DeleteSession(sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// StreamTurn runs one full turn: record the question, assemble the payload,
// count tokens, stream the generation, and record the outcome. Chunks are
// pushed to out as they become available; the channel is closed when the
// turn is over.
//
// Every failure past the credential check is recovered here and recorded in
// the transcript as the AI's turn, so the stored history never diverges
// from what the user saw. There is no automatic retry.
func (s *ChatService) StreamTurn(ctx context.Context, sessionID string, in *TurnInput, out chan<- model.StreamChunk) {
	defer close(out)

	store, err := s.sessions.Get(sessionID)
	if err != nil {
		out <- model.StreamChunk{Error: "Session not found.", Done: true}
		return
	}

	if strings.TrimSpace(in.APIKey) == "" {
		// Blocking warning, nothing is recorded: no model call was made.
		msg := fmt.Sprintf("%v: please provide a valid API key", apperr.ErrConfiguration)
		out <- model.StreamChunk{Error: msg, Done: true}
		return
	}

	store.Append(model.RoleHuman, in.Question)
	history := store.Snapshot()

	result := s.runTurn(ctx, in, history, out)
	s.record(store, sessionID, result, out)
}

// runTurn is the pipeline core. It returns an explicit result value instead
// of writing errors into the transcript itself; only the recorder decides
// how a failure is displayed.
func (s *ChatService) runTurn(ctx context.Context, in *TurnInput, history []model.Message, out chan<- model.StreamChunk) model.TurnResult {
	segments, err := assembler.Assemble(in.Files, history, in.Question, s.cfg.UploadPolicy)
	if err != nil {
		return model.TurnResult{Err: err}
	}

	language := in.Language
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	req := &llm.GenerateRequest{
		Model:             s.cfg.GeminiModel,
		APIKey:            in.APIKey,
		Segments:          segments,
		SystemInstruction: prompt.SystemInstruction(language),
		Temperature:       generationTemperature,
		SafetySettings:    llm.DefaultSafetySettings(),
	}

	timeout := time.Duration(s.cfg.RequestTimeoutSeconds) * time.Second
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tokens, err := s.llm.CountTokens(tctx, req)
	if err != nil {
		return model.TurnResult{Err: err}
	}
	// Display-only telemetry; never used to gate or truncate the request.
	out <- model.StreamChunk{Tokens: tokens}

	chunks := make(chan llm.StreamChunk)
	errc := make(chan error, 1)
	go func() {
		errc <- s.llm.GenerateStream(tctx, req, chunks)
	}()

	answer := Accumulate(chunks, func(fragment string) {
		out <- model.StreamChunk{Content: fragment}
	})

	if err := <-errc; err != nil {
		// Partial streamed text is discarded: the error alone becomes the
		// turn's outcome.
		return model.TurnResult{Tokens: tokens, Err: err}
	}
	return model.TurnResult{Answer: answer, Tokens: tokens}
}

// record appends the turn's outcome to the transcript and emits the final
// stream event. A failed turn is recorded as the AI's answer, formatted by
// FormatTurnError, so the transcript stays consistent with the screen.
func (s *ChatService) record(store *session.Store, sessionID string, result model.TurnResult, out chan<- model.StreamChunk) {
	if result.Err != nil {
		slog.Warn("Turn failed", "session_id", sessionID, "error", result.Err)
		msg := FormatTurnError(result.Err)
		store.Append(model.RoleAI, msg)
		out <- model.StreamChunk{Error: msg, Done: true}
		return
	}
	store.Append(model.RoleAI, result.Answer)
	slog.Debug("Turn completed", "session_id", sessionID, "tokens", result.Tokens)
	out <- model.StreamChunk{Done: true}
}

// Accumulate folds a provider chunk stream into the final answer text.
// Chunks with no text (safety-filtered candidates, end-of-stream markers)
// are skipped without aborting. The optional observe callback sees each
// retained fragment in order, which is how the rendering layer hooks in;
// pass nil to fold silently.
func Accumulate(chunks <-chan llm.StreamChunk, observe func(string)) string {
	var b strings.Builder
	for chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		b.WriteString(chunk.Content)
		if observe != nil {
			observe(chunk.Content)
		}
	}
	return b.String()
}

// FormatTurnError is the single place a pipeline failure is turned into the
// user-visible message recorded as the AI's turn.
func FormatTurnError(err error) string {
	return fmt.Sprintf("System error: %v", err)
}
