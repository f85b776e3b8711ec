// Package assembler builds the ordered model payload for one turn out of
// the uploaded files, the session transcript and the current question.
//
// The whole document set and the whole history are re-sent on every turn.
// That is deliberate: grounding fidelity is bought with tokens instead of a
// retrieval index, and callers must not truncate or deduplicate here.
package assembler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docuchat/backend/internal/apperr"
	"docuchat/backend/internal/config"
	"docuchat/backend/internal/model"
)

const (
	historyHeader  = "PREVIOUS CONVERSATION HISTORY:\n"
	questionPrefix = "CURRENT USER QUESTION: "
	pdfMimeType    = "application/pdf"
)

// Assemble produces the exact segment sequence sent to the model:
// every file in upload order, then one history segment, then the question.
//
// The history parameter is the full transcript including the live question
// as its last entry; the history segment excludes that entry so the
// question never appears twice in context.
func Assemble(files []model.UploadedFile, history []model.Message, question string, policy string) ([]model.ContentSegment, error) {
	segments := make([]model.ContentSegment, 0, len(files)+2)

	for _, file := range files {
		segment, ok, err := fileSegment(file, policy)
		if err != nil {
			return nil, err
		}
		if ok {
			segments = append(segments, segment)
		}
	}

	segments = append(segments, model.TextSegment(historyContext(history)))
	segments = append(segments, model.TextSegment(questionPrefix+question))

	return segments, nil
}

// fileSegment classifies one upload by its lowercased filename suffix.
// The second return value is false when the file is skipped under the
// skip policy.
func fileSegment(file model.UploadedFile, policy string) (model.ContentSegment, bool, error) {
	name := strings.ToLower(file.Name)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		// PDFs go out as raw bytes; the provider reads them natively.
		return model.BinarySegment(pdfMimeType, file.Data), true, nil

	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".md"):
		if !utf8.Valid(file.Data) {
			return model.ContentSegment{}, false, fmt.Errorf(
				"%w: file %q is not valid UTF-8 text", apperr.ErrDecoding, file.Name)
		}
		wrapped := fmt.Sprintf("=== START OF FILE: %s ===\n%s\n=== END OF FILE ===",
			file.Name, string(file.Data))
		return model.TextSegment(wrapped), true, nil

	default:
		if policy == config.UploadPolicyReject {
			return model.ContentSegment{}, false, fmt.Errorf(
				"%w: %q is not a supported document type (pdf, txt, md)",
				apperr.ErrUnsupportedFormat, file.Name)
		}
		return model.ContentSegment{}, false, nil
	}
}

// historyContext serializes every message before the live question as a
// "<Role>: <content>" line under a fixed header.
func historyContext(history []model.Message) string {
	var b strings.Builder
	b.WriteString(historyHeader)
	if len(history) == 0 {
		return b.String()
	}
	for _, msg := range history[:len(history)-1] {
		b.WriteString(msg.Role.Label())
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
