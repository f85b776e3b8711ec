package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docuchat/backend/internal/apperr"
	"docuchat/backend/internal/model"
)

const apiKeyHeader = "x-goog-api-key"

// Maximum size of a single SSE event line. Streamed candidates can carry
// whole paragraphs per event, so the default bufio limit is not enough.
const maxStreamLine = 4 * 1024 * 1024

type geminiProvider struct {
	rest *resty.Client
	// Separate client for streaming: response parsing is disabled at the
	// client level so the SSE body can be consumed incrementally.
	stream *resty.Client
}

// NewGeminiProvider returns a Provider backed by the Gemini REST API at
// baseURL. The credential is not fixed here: each request carries the key
// the user supplied for that turn. The timeout bounds both calls so a hung
// upstream surfaces as an error instead of a stuck session.
func NewGeminiProvider(baseURL string, timeout time.Duration) Provider {
	return &geminiProvider{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		stream: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetDoNotParseResponse(true),
	}
}

// --- Gemini wire types ---

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateBody struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
}

type countTokensBody struct {
	Contents []geminiContent `json:"contents"`
}

type countTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

type streamEvent struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func toContents(segments []model.ContentSegment) []geminiContent {
	parts := make([]geminiPart, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind == model.SegmentBinary {
			parts = append(parts, geminiPart{InlineData: &geminiBlob{
				MimeType: seg.MimeType,
				Data:     base64.StdEncoding.EncodeToString(seg.Data),
			}})
			continue
		}
		parts = append(parts, geminiPart{Text: seg.Text})
	}
	return []geminiContent{{Role: "user", Parts: parts}}
}

func (p *geminiProvider) CountTokens(ctx context.Context, req *GenerateRequest) (int, error) {
	var out countTokensResponse
	var errOut apiError

	resp, err := p.rest.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, req.APIKey).
		SetBody(&countTokensBody{Contents: toContents(req.Segments)}).
		SetResult(&out).
		SetError(&errOut).
		Post(fmt.Sprintf("/v1beta/models/%s:countTokens", req.Model))
	if err != nil {
		return 0, fmt.Errorf("%w: count tokens request failed: %v", apperr.ErrGateway, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: count tokens returned %s: %s",
			apperr.ErrGateway, resp.Status(), upstreamMessage(&errOut, resp.Body()))
	}
	return out.TotalTokens, nil
}

func (p *geminiProvider) GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error {
	defer close(ch)

	body := &generateBody{
		Contents:         toContents(req.Segments),
		GenerationConfig: &generationConfig{Temperature: req.Temperature},
		SafetySettings:   req.SafetySettings,
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	resp, err := p.stream.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, req.APIKey).
		SetBody(body).
		Post(fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse", req.Model))
	if err != nil {
		return fmt.Errorf("%w: generate request failed: %v", apperr.ErrGateway, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.IsError() {
		payload, _ := io.ReadAll(raw)
		var errOut apiError
		_ = json.Unmarshal(payload, &errOut)
		return fmt.Errorf("%w: generate returned %s: %s",
			apperr.ErrGateway, resp.Status(), upstreamMessage(&errOut, payload))
	}

	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("%w: malformed stream event: %v", apperr.ErrGateway, err)
		}

		// Safety-filtered events have no candidate text; they are forwarded
		// with empty content and the consumer drops them.
		var text strings.Builder
		for _, cand := range event.Candidates {
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
		}

		select {
		case ch <- StreamChunk{Content: text.String()}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading stream: %v", apperr.ErrGateway, err)
	}

	select {
	case ch <- StreamChunk{Done: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func upstreamMessage(errOut *apiError, body []byte) string {
	if errOut != nil && errOut.Error.Message != "" {
		return errOut.Error.Message
	}
	return string(bytes.TrimSpace(body))
}
