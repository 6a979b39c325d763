package message

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	msgs   []*Message
	nextID uint64
}

func (f *fakeRepo) Insert(_ context.Context, senderID, receiverID uint64, content string) (*Message, error) {
	f.nextID++
	msg := &Message{
		ID:         f.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    &content,
		CreatedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Second),
	}
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeRepo) QueryBetween(_ context.Context, a, b uint64) ([]*Message, error) {
	var out []*Message
	for _, m := range f.msgs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) QueryInvolving(_ context.Context, userID uint64) ([]*Message, error) {
	var out []*Message
	for _, m := range f.msgs {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) ExistsSelfMessage(_ context.Context, userID uint64) (bool, error) {
	for _, m := range f.msgs {
		if m.SenderID == userID && m.ReceiverID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ConversationSnapshot(ctx context.Context, userID uint64) ([]*Message, bool, error) {
	msgs, err := f.QueryInvolving(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	hasSelf, err := f.ExistsSelfMessage(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return msgs, hasSelf, nil
}

func newTestService(repo Repository, blobs *fakeBlobStore, dir UserDirectory) Service {
	codec := NewCodec(blobs)
	agg := NewAggregator(codec, dir)
	return NewService(repo, codec, agg, dir, blobs, nil, zap.NewNop())
}

func TestSendMessageValidation(t *testing.T) {
	repo := &fakeRepo{}
	blobs := newFakeBlobStore()
	svc := newTestService(repo, blobs, directoryWith(1, 2))

	cases := []struct {
		name string
		req  SendMessageRequest
		want error
	}{
		{"missing receiver", SendMessageRequest{Message: "hi"}, ErrValidation},
		{"no content at all", SendMessageRequest{ReceiverID: 2}, ErrValidation},
		{"unknown receiver", SendMessageRequest{ReceiverID: 42, Message: "hi"}, ErrNotFound},
		{"file without name", SendMessageRequest{ReceiverID: 2, File: "aGk=", FileType: "image"}, ErrValidation},
		{"file without kind", SendMessageRequest{ReceiverID: 2, File: "aGk=", FileName: "a.png"}, ErrValidation},
		{"file not base64", SendMessageRequest{ReceiverID: 2, File: "%%%", FileName: "a.png", FileType: "image"}, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(context.Background(), 1, &tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Empty(t, repo.msgs, "rejected sends must not touch the ledger")
	assert.Empty(t, blobs.objects, "rejected sends must not touch the blob store")
}

func TestSendTextMessage(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newFakeBlobStore(), directoryWith(1, 2))

	msg, err := svc.SendMessage(context.Background(), 1, &SendMessageRequest{
		ReceiverID: 2,
		Message:    "hi",
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "hi", *msg.Content)
}

func TestSendToSelf(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newFakeBlobStore(), directoryWith(1))

	_, err := svc.SendMessage(context.Background(), 1, &SendMessageRequest{
		ReceiverID: 1,
		Message:    "note to self",
	})
	require.NoError(t, err)

	summaries, err := svc.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "note to self", summaries[0].LastMessage)
}

func TestListMessagesForbidden(t *testing.T) {
	svc := newTestService(&fakeRepo{}, newFakeBlobStore(), directoryWith(1, 2, 3))

	_, err := svc.ListMessages(context.Background(), 3, 1, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListMessagesDecodesImageAttachment(t *testing.T) {
	repo := &fakeRepo{}
	blobs := newFakeBlobStore()
	svc := newTestService(repo, blobs, directoryWith(1, 2))

	payload := []byte{0x89, 'P', 'N', 'G'}
	_, err := svc.SendMessage(context.Background(), 1, &SendMessageRequest{
		ReceiverID: 2,
		File:       base64.StdEncoding.EncodeToString(payload),
		FileName:   "cat.png",
		FileType:   "image",
	})
	require.NoError(t, err)

	msgs, err := svc.ListMessages(context.Background(), 2, 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got := msgs[0]
	assert.Empty(t, got.Message, "attachment messages have empty display text")
	require.NotNil(t, got.FileData, "inline image data is resolved from the blob store")
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), *got.FileData)
	assert.Equal(t, "cat.png", got.FileName)
}

func TestListMessagesLegacyRowSurvives(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newFakeBlobStore(), directoryWith(1, 2))

	corrupt := `{"type":` // truncated envelope from a legacy writer
	repo.msgs = append(repo.msgs, &Message{
		ID: 1, SenderID: 1, ReceiverID: 2, Content: &corrupt,
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})

	msgs, err := svc.ListMessages(context.Background(), 1, 1, 2)
	require.NoError(t, err, "a corrupt row must not fail the read")
	require.Len(t, msgs, 1)
	assert.Equal(t, corrupt, msgs[0].Message)
}

func TestListConversationsTwoUsers(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newFakeBlobStore(), directoryWith(1, 2))

	_, err := svc.SendMessage(context.Background(), 1, &SendMessageRequest{ReceiverID: 2, Message: "hi"})
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), 2, &SendMessageRequest{ReceiverID: 1, Message: "yo"})
	require.NoError(t, err)

	for _, viewer := range []uint64{1, 2} {
		summaries, err := svc.ListConversations(context.Background(), viewer)
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		var counterpart *ConversationSummary
		for _, s := range summaries {
			if s.ID != viewer {
				counterpart = s
			}
		}
		require.NotNil(t, counterpart)
		assert.Equal(t, "yo", counterpart.LastMessage)
	}
}
