package model

// Role identifies who authored a message in a session transcript.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Label returns the display name used when the transcript is serialized
// into the history segment sent to the model.
func (r Role) Label() string {
	if r == RoleHuman {
		return "User"
	}
	return "AI"
}

// Message is a single entry in a session transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UploadedFile is a document received from the client for one turn.
// It lives only for the duration of request assembly and is never stored.
type UploadedFile struct {
	Name string
	Data []byte
}

// SegmentKind discriminates the two variants of ContentSegment.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentBinary
)

// ContentSegment is one unit of the ordered payload sent to the generation
// model: either raw binary file data with a mime type, or tagged text.
// Exactly one of Text or (MimeType, Data) is populated, per Kind.
type ContentSegment struct {
	Kind     SegmentKind
	Text     string
	MimeType string
	Data     []byte
}

// TextSegment builds a text variant.
func TextSegment(text string) ContentSegment {
	return ContentSegment{Kind: SegmentText, Text: text}
}

// BinarySegment builds a binary variant carrying the bytes unmodified.
func BinarySegment(mimeType string, data []byte) ContentSegment {
	return ContentSegment{Kind: SegmentBinary, MimeType: mimeType, Data: data}
}

// StreamChunk is a single event in the stream sent back to the client over
// SSE. Tokens is set once, before generation starts, as display-only
// telemetry. Error carries the formatted message of a turn-ending failure.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Tokens  int    `json:"tokens,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TurnResult is the outcome of one full turn of the pipeline. Exactly one
// of Answer or Err is meaningful: a successful turn carries the fully
// accumulated answer text, a failed one carries the error that ended it.
// Partial streamed text received before a failure is not retained.
type TurnResult struct {
	Answer string
	Tokens int
	Err    error
}
