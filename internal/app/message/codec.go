package message

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"backend/internal/providers/minio"
)

// Content is the tagged variant submitted to the codec. Callers build one
// of the two concrete types; ambiguous content cannot be constructed.
type Content interface {
	isContent()
}

type TextContent struct {
	Text string
}

// AttachmentContent carries raw attachment bytes plus the metadata that
// ends up inside the persisted reference.
type AttachmentContent struct {
	Data []byte
	Name string
	Kind string
}

func (TextContent) isContent()       {}
func (AttachmentContent) isContent() {}

// BlobStore is the slice of the attachment store the codec needs.
// *minio.MinioProvider satisfies it.
type BlobStore interface {
	Store(ctx context.Context, data []byte, name, contentType string) (*minio.StoredObject, error)
}

// attachmentEnvelope is the persisted form of an attachment reference.
// The field names are fixed: rows written by the previous implementation
// of this service use exactly this shape.
type attachmentEnvelope struct {
	Type    string `json:"type"`
	FileID  string `json:"file_id"`
	Name    string `json:"name"`
	Data    string `json:"data,omitempty"`
	Content string `json:"content,omitempty"`
}

// DisplayProjection is the decoded, display-ready view of a content field.
type DisplayProjection struct {
	Text     string
	Kind     string
	FileID   string
	FileName string
	FileURL  string
	FileData string
}

// Codec converts between logical message content and the single persisted
// content field. It is stateless; the only side effect is the blob write
// inside Encode.
type Codec struct {
	blobs BlobStore
}

func NewCodec(blobs BlobStore) *Codec {
	return &Codec{blobs: blobs}
}

// Encode turns content into its persisted form. Plain text is stored
// verbatim. Attachments are validated, written to the blob store, and
// persisted as a JSON reference envelope. Validation happens before the
// store write so a rejected payload leaves no side effects.
func (c *Codec) Encode(ctx context.Context, content Content) (string, error) {
	switch v := content.(type) {
	case TextContent:
		return v.Text, nil

	case AttachmentContent:
		if len(v.Data) == 0 {
			return "", fmt.Errorf("%w: attachment payload is empty", ErrValidation)
		}
		if v.Kind == "" {
			return "", fmt.Errorf("%w: attachment kind is required", ErrValidation)
		}
		if v.Name == "" {
			return "", fmt.Errorf("%w: attachment name is required", ErrValidation)
		}
		if c.blobs == nil {
			return "", fmt.Errorf("attachment store is not configured")
		}

		kind := strings.ToLower(v.Kind)

		stored, err := c.blobs.Store(ctx, v.Data, v.Name, "")
		if err != nil {
			return "", fmt.Errorf("failed to store attachment: %w", err)
		}

		env := attachmentEnvelope{
			Type:   kind,
			FileID: stored.FileID,
			Name:   v.Name,
		}

		raw, err := json.Marshal(env)
		if err != nil {
			return "", fmt.Errorf("failed to serialize attachment reference: %w", err)
		}
		return string(raw), nil

	default:
		return "", fmt.Errorf("%w: no content provided", ErrValidation)
	}
}

// Decode reconstructs the display projection from a persisted content
// field. It never fails: anything that is not a well-formed reference
// envelope is treated as plain display text. A single corrupt or legacy
// row must not make the surrounding conversation unreadable.
func (c *Codec) Decode(raw *string) DisplayProjection {
	if raw == nil {
		return DisplayProjection{}
	}

	env, ok := parseEnvelope(*raw)
	if !ok {
		return DisplayProjection{Text: *raw}
	}

	proj := DisplayProjection{
		Kind:     env.Type,
		FileID:   env.FileID,
		FileName: env.Name,
	}

	switch {
	case isDocumentKind(env.Type):
		// The retrieval path is derived from the reference itself; no
		// store lookup happens at decode time.
		proj.FileURL = "/download/" + env.FileID + "/" + url.PathEscape(env.Name)

	case isImageKind(env.Type):
		proj.FileData = env.Data

	default:
		proj.Text = env.Content
	}

	return proj
}

func parseEnvelope(raw string) (attachmentEnvelope, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return attachmentEnvelope{}, false
	}

	var env attachmentEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return attachmentEnvelope{}, false
	}
	if env.Type == "" {
		return attachmentEnvelope{}, false
	}
	return env, true
}

func isDocumentKind(kind string) bool {
	switch kind {
	case "pdf", "doc", "docx", "document":
		return true
	}
	return false
}

func isImageKind(kind string) bool {
	if strings.HasPrefix(kind, "image") {
		return true
	}
	switch kind {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
