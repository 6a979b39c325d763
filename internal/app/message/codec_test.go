package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"backend/internal/providers/minio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	objects map[string][]byte
	nextID  int
	failing bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
	}
}

func (f *fakeBlobStore) Store(_ context.Context, data []byte, name, contentType string) (*minio.StoredObject, error) {
	if f.failing {
		return nil, errors.New("blob store unavailable")
	}
	f.nextID++
	fileID := fmt.Sprintf("file-%d", f.nextID)
	f.objects[fileID] = data
	return &minio.StoredObject{
		FileID:      fileID,
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func (f *fakeBlobStore) Fetch(_ context.Context, fileID, _ string) ([]byte, error) {
	data, ok := f.objects[fileID]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func TestCodecTextRoundTrip(t *testing.T) {
	codec := NewCodec(newFakeBlobStore())

	for _, text := range []string{
		"hello",
		"",
		"multi\nline\ntext",
		`looks {like json but isn't`,
		"кириллица и emoji 🙂",
	} {
		encoded, err := codec.Encode(context.Background(), TextContent{Text: text})
		require.NoError(t, err)
		assert.Equal(t, text, encoded)

		proj := codec.Decode(&encoded)
		assert.Equal(t, text, proj.Text)
		assert.Empty(t, proj.FileID)
	}
}

func TestCodecAttachmentRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	codec := NewCodec(blobs)

	encoded, err := codec.Encode(context.Background(), AttachmentContent{
		Data: []byte("%PDF-1.4 ..."),
		Name: "report.pdf",
		Kind: "PDF",
	})
	require.NoError(t, err)

	// The persisted field is a reference envelope, not the payload.
	var env map[string]string
	require.NoError(t, json.Unmarshal([]byte(encoded), &env))
	assert.Equal(t, "pdf", env["type"])
	assert.Equal(t, "report.pdf", env["name"])
	assert.NotEmpty(t, env["file_id"])
	assert.Equal(t, []byte("%PDF-1.4 ..."), blobs.objects[env["file_id"]])

	proj := codec.Decode(&encoded)
	assert.Empty(t, proj.Text, "document attachments have no display text")
	assert.NotEqual(t, encoded, proj.Text, "raw envelope must never leak as text")
	assert.Equal(t, "pdf", proj.Kind)
	assert.Equal(t, "report.pdf", proj.FileName)
	assert.Equal(t, "/download/"+env["file_id"]+"/report.pdf", proj.FileURL)
}

func TestCodecImageAttachment(t *testing.T) {
	codec := NewCodec(newFakeBlobStore())

	encoded, err := codec.Encode(context.Background(), AttachmentContent{
		Data: []byte{0x89, 'P', 'N', 'G'},
		Name: "cat.png",
		Kind: "image",
	})
	require.NoError(t, err)

	proj := codec.Decode(&encoded)
	assert.Empty(t, proj.Text)
	assert.Equal(t, "image", proj.Kind)
	assert.NotEmpty(t, proj.FileID, "caller resolves inline data via the blob identifier")
	assert.Empty(t, proj.FileURL)
}

func TestCodecAttachmentValidation(t *testing.T) {
	blobs := newFakeBlobStore()
	codec := NewCodec(blobs)

	cases := []AttachmentContent{
		{Data: nil, Name: "a.png", Kind: "image"},
		{Data: []byte("x"), Name: "", Kind: "image"},
		{Data: []byte("x"), Name: "a.png", Kind: ""},
	}

	for _, c := range cases {
		_, err := codec.Encode(context.Background(), c)
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.Empty(t, blobs.objects, "rejected payloads must not reach the store")
}

func TestCodecStoreFailureSurfaces(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failing = true
	codec := NewCodec(blobs)

	_, err := codec.Encode(context.Background(), AttachmentContent{
		Data: []byte("x"),
		Name: "a.png",
		Kind: "image",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestCodecDecodeNeverFails(t *testing.T) {
	codec := NewCodec(nil)

	assert.Equal(t, DisplayProjection{}, codec.Decode(nil))

	for _, raw := range []string{
		"plain text",
		"{broken json",
		`{"no_type_tag": true}`,
		`{"type": ""}`,
		"[1,2,3]",
		"   ",
		`{"type"`,
	} {
		proj := codec.Decode(&raw)
		assert.Equal(t, raw, proj.Text, "malformed content degrades to verbatim text")
	}
}

func TestCodecDecodeEscapesDownloadName(t *testing.T) {
	codec := NewCodec(nil)

	name := "q1 #final?.pdf"
	raw := `{"type":"pdf","file_id":"f1","name":"` + name + `"}`
	proj := codec.Decode(&raw)

	assert.Equal(t, "/download/f1/"+url.PathEscape(name), proj.FileURL)
	assert.NotContains(t, proj.FileURL, "?")
	assert.NotContains(t, proj.FileURL, "#")
	assert.Equal(t, name, proj.FileName, "the display name stays unescaped")
}

func TestCodecDecodeUnknownKind(t *testing.T) {
	codec := NewCodec(nil)

	withContent := `{"type":"sticker","file_id":"f1","name":"s","content":"a sticker"}`
	proj := codec.Decode(&withContent)
	assert.Equal(t, "a sticker", proj.Text)

	withoutContent := `{"type":"sticker","file_id":"f1","name":"s"}`
	proj = codec.Decode(&withoutContent)
	assert.Empty(t, proj.Text)
}

func TestCodecDecodeEmbeddedImageData(t *testing.T) {
	codec := NewCodec(nil)

	raw := `{"type":"image","file_id":"f1","name":"cat.png","data":"aGVsbG8="}`
	proj := codec.Decode(&raw)
	assert.Empty(t, proj.Text)
	assert.Equal(t, "aGVsbG8=", proj.FileData)
}
