package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docuchat/backend/internal/apperr"
	"docuchat/backend/internal/config"
	"docuchat/backend/internal/llm"
	mock_llm "docuchat/backend/internal/llm/mocks"
	"docuchat/backend/internal/model"
	"docuchat/backend/internal/service"
	"docuchat/backend/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		GeminiModel:           "gemini-2.5-flash",
		UploadPolicy:          config.UploadPolicySkip,
		DefaultLanguage:       "english",
		RequestTimeoutSeconds: 5,
	}
}

func setupChatService(t *testing.T) (*service.ChatService, *mock_llm.Provider, *session.Manager) {
	provider := mock_llm.NewProvider(t)
	sessions := session.NewManager(time.Hour)
	return service.NewChatService(sessions, provider, testConfig()), provider, sessions
}

// drain collects every chunk StreamTurn emitted. StreamTurn is synchronous,
// so by the time it returns the channel is closed and safe to range over.
func drain(out chan model.StreamChunk) []model.StreamChunk {
	var chunks []model.StreamChunk
	for chunk := range out {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestStreamTurn_HappyPath(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupChatService(t)
	sessionID := svc.CreateSession()

	provider.On("CountTokens", mock.Anything, mock.AnythingOfType("*llm.GenerateRequest")).
		Return(4321, nil).Once()
	provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			ch := args.Get(2).(chan<- llm.StreamChunk)
			ch <- llm.StreamChunk{Content: "Revenue grew "}
			ch <- llm.StreamChunk{Content: ""} // safety-filtered event
			ch <- llm.StreamChunk{Content: "12%."}
			ch <- llm.StreamChunk{Done: true}
			close(ch)
		}).Once()

	out := make(chan model.StreamChunk, 16)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{
		APIKey:   "key",
		Question: "What was the revenue growth?",
	}, out)

	chunks := drain(out)
	require.Len(t, chunks, 4)
	assert.Equal(t, 4321, chunks[0].Tokens)
	assert.Equal(t, "Revenue grew ", chunks[1].Content)
	assert.Equal(t, "12%.", chunks[2].Content)
	assert.True(t, chunks[3].Done)
	assert.Empty(t, chunks[3].Error)

	transcript, err := svc.Transcript(sessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.Message{Role: model.RoleHuman, Content: "What was the revenue growth?"}, transcript[0])
	assert.Equal(t, model.Message{Role: model.RoleAI, Content: "Revenue grew 12%."}, transcript[1])
}

func TestStreamTurn_RequestCarriesFixedParameters(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupChatService(t)
	sessionID := svc.CreateSession()

	var captured *llm.GenerateRequest
	provider.On("CountTokens", mock.Anything, mock.Anything).
		Return(1, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*llm.GenerateRequest)
		}).Once()
	provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			close(args.Get(2).(chan<- llm.StreamChunk))
		}).Once()

	out := make(chan model.StreamChunk, 16)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{
		APIKey:   "key",
		Question: "pertanyaan",
		Language: "indonesian",
		Files:    []model.UploadedFile{{Name: "r.pdf", Data: []byte{1}}},
	}, out)
	drain(out)

	require.NotNil(t, captured)
	assert.Equal(t, "gemini-2.5-flash", captured.Model)
	assert.Equal(t, "key", captured.APIKey)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-6)
	assert.Len(t, captured.SafetySettings, 4)
	assert.Contains(t, captured.SystemInstruction, "Respond entirely in Indonesian")
	// Files first, then history, then the question.
	require.Len(t, captured.Segments, 3)
	assert.Equal(t, model.SegmentBinary, captured.Segments[0].Kind)
	assert.Equal(t, "CURRENT USER QUESTION: pertanyaan", captured.Segments[2].Text)
}

func TestStreamTurn_MissingAPIKey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupChatService(t)
	sessionID := svc.CreateSession()

	out := make(chan model.StreamChunk, 4)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{Question: "hi"}, out)

	chunks := drain(out)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "configuration error")

	// No model call was made, so nothing is recorded.
	transcript, err := svc.Transcript(sessionID)
	require.NoError(t, err)
	assert.Empty(t, transcript)
}

func TestStreamTurn_GatewayFailureIsRecordedAsAITurn(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupChatService(t)
	sessionID := svc.CreateSession()

	provider.On("CountTokens", mock.Anything, mock.Anything).
		Return(0, apperr.ErrGateway).Once()

	out := make(chan model.StreamChunk, 4)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{APIKey: "key", Question: "hi"}, out)

	chunks := drain(out)
	require.NotEmpty(t, chunks)
	final := chunks[len(chunks)-1]
	assert.True(t, final.Done)
	assert.Contains(t, final.Error, "gateway error")

	transcript, err := svc.Transcript(sessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.RoleAI, transcript[1].Role)
	assert.Equal(t, service.FormatTurnError(apperr.ErrGateway), transcript[1].Content)
}

func TestStreamTurn_MidStreamFailureDiscardsPartialText(t *testing.T) {
	ctx := context.Background()
	svc, provider, _ := setupChatService(t)
	sessionID := svc.CreateSession()

	simulated := errors.New("simulated network error")
	provider.On("CountTokens", mock.Anything, mock.Anything).Return(10, nil).Once()
	provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
		Return(simulated).
		Run(func(args mock.Arguments) {
			ch := args.Get(2).(chan<- llm.StreamChunk)
			ch <- llm.StreamChunk{Content: "partial text before the failure"}
			close(ch)
		}).Once()

	out := make(chan model.StreamChunk, 16)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{APIKey: "key", Question: "hi"}, out)
	drain(out)

	transcript, err := svc.Transcript(sessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.RoleAI, transcript[1].Role)
	assert.Equal(t, service.FormatTurnError(simulated), transcript[1].Content)
	assert.NotContains(t, transcript[1].Content, "partial text")
}

func TestStreamTurn_RejectPolicyReportsUnsupportedUpload(t *testing.T) {
	ctx := context.Background()
	provider := mock_llm.NewProvider(t)
	sessions := session.NewManager(time.Hour)
	cfg := testConfig()
	cfg.UploadPolicy = config.UploadPolicyReject
	svc := service.NewChatService(sessions, provider, cfg)
	sessionID := svc.CreateSession()

	out := make(chan model.StreamChunk, 4)
	svc.StreamTurn(ctx, sessionID, &service.TurnInput{
		APIKey:   "key",
		Question: "hi",
		Files:    []model.UploadedFile{{Name: "data.csv", Data: []byte("a,b")}},
	}, out)

	chunks := drain(out)
	final := chunks[len(chunks)-1]
	assert.Contains(t, final.Error, "unsupported file format")
	assert.Contains(t, final.Error, "data.csv")
}

func TestStreamTurn_UnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupChatService(t)

	out := make(chan model.StreamChunk, 4)
	svc.StreamTurn(ctx, "no-such-session", &service.TurnInput{APIKey: "key", Question: "hi"}, out)

	chunks := drain(out)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "Session not found")
}

func TestAccumulate(t *testing.T) {
	chunks := make(chan llm.StreamChunk, 8)
	chunks <- llm.StreamChunk{Content: "a"}
	chunks <- llm.StreamChunk{Content: ""}
	chunks <- llm.StreamChunk{Content: "b"}
	chunks <- llm.StreamChunk{Done: true}
	close(chunks)

	var seen []string
	answer := service.Accumulate(chunks, func(fragment string) {
		seen = append(seen, fragment)
	})

	assert.Equal(t, "ab", answer)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestAccumulate_NilObserver(t *testing.T) {
	chunks := make(chan llm.StreamChunk, 2)
	chunks <- llm.StreamChunk{Content: "only"}
	close(chunks)

	assert.Equal(t, "only", service.Accumulate(chunks, nil))
}
