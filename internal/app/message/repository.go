package message

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Repository is the append-only message ledger. Rows are only ever
// inserted; nothing updates or deletes them.
type Repository interface {
	Insert(ctx context.Context, senderID, receiverID uint64, content string) (*Message, error)
	QueryBetween(ctx context.Context, a, b uint64) ([]*Message, error)
	QueryInvolving(ctx context.Context, userID uint64) ([]*Message, error)
	ExistsSelfMessage(ctx context.Context, userID uint64) (bool, error)
	ConversationSnapshot(ctx context.Context, userID uint64) ([]*Message, bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, senderID, receiverID uint64, content string) (*Message, error) {
	msg := &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    &content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *repository) QueryBetween(ctx context.Context, a, b uint64) ([]*Message, error) {
	var msgs []*Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *repository) QueryInvolving(ctx context.Context, userID uint64) ([]*Message, error) {
	return queryInvolving(r.db.WithContext(ctx), userID)
}

func (r *repository) ExistsSelfMessage(ctx context.Context, userID uint64) (bool, error) {
	return existsSelfMessage(r.db.WithContext(ctx), userID)
}

// ConversationSnapshot evaluates the self-message check and the involving
// query inside one read-only transaction, so the aggregator never sees the
// two disagree under concurrent inserts. Repeatable Read is required:
// under Read Committed each statement would take its own snapshot.
func (r *repository) ConversationSnapshot(ctx context.Context, userID uint64) ([]*Message, bool, error) {
	var msgs []*Message
	var hasSelf bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if hasSelf, err = existsSelfMessage(tx, userID); err != nil {
			return err
		}
		if msgs, err = queryInvolving(tx, userID); err != nil {
			return err
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, false, err
	}
	return msgs, hasSelf, nil
}

func queryInvolving(tx *gorm.DB, userID uint64) ([]*Message, error) {
	var msgs []*Message
	err := tx.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Find(&msgs).Error
	return msgs, err
}

func existsSelfMessage(tx *gorm.DB, userID uint64) (bool, error) {
	var exists bool
	err := tx.Model(&Message{}).
		Select("count(*) > 0").
		Where("sender_id = ? AND receiver_id = ?", userID, userID).
		Find(&exists).Error
	return exists, err
}
