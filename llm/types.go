package llm

import "context"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Blob is a binary attachment crossing the transport boundary.
// Data is always base64-encoded text; the transport is JSON-based and
// never carries raw bytes.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one element of a turn's content: either text or an inline blob.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// TextPart builds a text-only part.
func TextPart(text string) Part { return Part{Text: text} }

// BlobPart builds an inline-data part.
func BlobPart(mimeType, data string) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: data}}
}

// Content is one conversation turn: a role plus its ordered parts.
type Content struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// UserContent builds a user turn from the given parts.
func UserContent(parts ...Part) Content {
	return Content{Role: RoleUser, Parts: parts}
}

// ModelContent builds a model turn from the given parts.
func ModelContent(parts ...Part) Content {
	return Content{Role: RoleModel, Parts: parts}
}

// SchemaType enumerates the JSON value kinds usable in a response schema.
type SchemaType string

const (
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
	TypeArray   SchemaType = "ARRAY"
	TypeObject  SchemaType = "OBJECT"
)

// Schema is a response-shape constraint. When attached to a request the
// remote service is instructed to return JSON conforming to it instead of
// free text. It mirrors the subset of JSON Schema the API understands.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// GenerateRequest is the transport-level payload for one inference call.
// ResponseSchema and EnableSearch are mutually exclusive: grounded search
// replies are free text plus citation metadata, never schema-constrained.
type GenerateRequest struct {
	Model             string    `json:"model"`
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	ResponseSchema    *Schema   `json:"responseSchema,omitempty"`
	EnableSearch      bool      `json:"enableSearch,omitempty"`
	Temperature       float32   `json:"temperature,omitempty"`
	MaxOutputTokens   int       `json:"maxOutputTokens,omitempty"`
}

// WebSource identifies one grounding source on the web.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk is one retrieved source attached to a grounded answer.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// Grounding carries the citation metadata of a search-grounded answer.
type Grounding struct {
	Chunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// Citation is one deduplicated source reference surfaced to callers.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Candidate is one generated reply.
type Candidate struct {
	Content      Content    `json:"content"`
	FinishReason string     `json:"finishReason,omitempty"`
	Grounding    *Grounding `json:"groundingMetadata,omitempty"`
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"promptTokenCount,omitempty"`
	CompletionTokens int `json:"candidatesTokenCount,omitempty"`
	TotalTokens      int `json:"totalTokenCount,omitempty"`
}

// GenerateResponse is the raw successful result of one inference call.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
	Usage      *Usage      `json:"usageMetadata,omitempty"`
}

// StreamChunk is one incremental fragment of a streaming reply. A terminal
// transport failure is delivered as a final chunk with Err set; the text
// already delivered before it remains valid.
type StreamChunk struct {
	Text         string
	FinishReason string
	Err          error
}

// Generator is the transport contract: a single-shot call and a streaming
// call over an authenticated channel. Implementations must honor ctx on
// both so abandoned operations actually stop.
type Generator interface {
	// Generate issues one request and returns the complete response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Stream issues one request and returns a channel of incremental
	// fragments. The channel is closed after the final chunk; a failed
	// stream terminates with a chunk whose Err is set.
	Stream(ctx context.Context, req *GenerateRequest) (<-chan StreamChunk, error)
}
