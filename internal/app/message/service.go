package message

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BlobFetcher reads stored attachment bytes back for inline display.
// *minio.MinioProvider satisfies it.
type BlobFetcher interface {
	Fetch(ctx context.Context, fileID, name string) ([]byte, error)
}

type Service interface {
	SendMessage(ctx context.Context, senderID uint64, req *SendMessageRequest) (*Message, error)
	ListMessages(ctx context.Context, callerID, senderID, receiverID uint64) ([]*DecodedMessage, error)
	ListConversations(ctx context.Context, userID uint64) ([]*ConversationSummary, error)
}

type service struct {
	repo       Repository
	codec      *Codec
	aggregator *Aggregator
	users      UserDirectory
	blobs      BlobFetcher
	eventBus   *utils.EventBus
	logger     *zap.SugaredLogger
}

func NewService(
	repo Repository,
	codec *Codec,
	aggregator *Aggregator,
	users UserDirectory,
	blobs BlobFetcher,
	eventBus *utils.EventBus,
	logger *zap.Logger,
) Service {
	return &service{
		repo:       repo,
		codec:      codec,
		aggregator: aggregator,
		users:      users,
		blobs:      blobs,
		eventBus:   eventBus,
		logger:     logger.Sugar(),
	}
}

// SendMessage validates the request, encodes the content and appends one
// row to the ledger. Sending to yourself is allowed.
func (s *service) SendMessage(ctx context.Context, senderID uint64, req *SendMessageRequest) (*Message, error) {
	if req.ReceiverID == 0 {
		return nil, fmt.Errorf("%w: receiver_id is required", ErrValidation)
	}
	if req.Message == "" && req.File == "" {
		return nil, fmt.Errorf("%w: message or file is required", ErrValidation)
	}

	if _, err := s.users.GetByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: receiver with ID %d does not exist", ErrNotFound, req.ReceiverID)
		}
		return nil, fmt.Errorf("failed to look up receiver: %w", err)
	}

	content, err := s.buildContent(req)
	if err != nil {
		return nil, err
	}

	encoded, err := s.codec.Encode(ctx, content)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.Insert(ctx, senderID, req.ReceiverID, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	s.logger.Infow("Message sent",
		"message_id", msg.ID,
		"sender_id", senderID,
		"receiver_id", req.ReceiverID,
		"has_file", req.File != "",
	)

	if s.eventBus != nil {
		s.eventBus.Publish("message_created", MessageCreatedEvent{
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Message:    s.codec.Decode(msg.Content).Text,
			CreatedAt:  msg.CreatedAt,
		})
	}

	return msg, nil
}

func (s *service) buildContent(req *SendMessageRequest) (Content, error) {
	if req.File == "" {
		return TextContent{Text: req.Message}, nil
	}

	data, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		return nil, fmt.Errorf("%w: file is not valid base64", ErrValidation)
	}

	return AttachmentContent{
		Data: data,
		Name: req.FileName,
		Kind: req.FileType,
	}, nil
}

// ListMessages returns the decoded history between two users in ascending
// time order. The caller must be one of the two endpoints.
func (s *service) ListMessages(ctx context.Context, callerID, senderID, receiverID uint64) ([]*DecodedMessage, error) {
	if callerID != senderID && callerID != receiverID {
		return nil, fmt.Errorf("%w: not a participant of this conversation", ErrForbidden)
	}

	msgs, err := s.repo.QueryBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	decoded := make([]*DecodedMessage, 0, len(msgs))
	for _, msg := range msgs {
		decoded = append(decoded, s.project(ctx, msg))
	}
	return decoded, nil
}

// project applies the codec to one row. Image references without embedded
// data are resolved against the blob store; a failed fetch degrades to a
// message without inline data rather than failing the read.
func (s *service) project(ctx context.Context, msg *Message) *DecodedMessage {
	proj := s.codec.Decode(msg.Content)

	out := &DecodedMessage{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Message:    proj.Text,
		FileName:   proj.FileName,
		CreatedAt:  msg.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}

	if proj.FileURL != "" {
		out.FileURL = &proj.FileURL
	}

	switch {
	case proj.FileData != "":
		out.FileData = &proj.FileData
	case isImageKind(proj.Kind) && proj.FileID != "" && s.blobs != nil:
		data, err := s.blobs.Fetch(ctx, proj.FileID, proj.FileName)
		if err != nil {
			s.logger.Warnw("Failed to fetch attachment for display",
				"message_id", msg.ID,
				"file_id", proj.FileID,
				"error", err,
			)
			break
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		out.FileData = &encoded
	}

	return out
}

// ListConversations computes the chat list for userID. Both ledger reads
// happen against one snapshot; the result is recomputed on every call.
func (s *service) ListConversations(ctx context.Context, userID uint64) ([]*ConversationSummary, error) {
	msgs, hasSelf, err := s.repo.ConversationSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation snapshot: %w", err)
	}

	return s.aggregator.Summarize(ctx, userID, msgs, hasSelf)
}
