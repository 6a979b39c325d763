package message

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"backend/internal/app/user"

	"gorm.io/gorm"
)

// UserDirectory resolves counterpart identities. user.Service satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (*user.User, error)
}

// pairKey identifies a two-party conversation independent of direction.
// lo == hi for the degenerate self-conversation.
type pairKey struct {
	lo, hi uint64
}

func newPairKey(a, b uint64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Aggregator derives the conversation list for a user from an unordered
// slice of ledger rows. It holds no state across calls.
type Aggregator struct {
	codec *Codec
	users UserDirectory
	now   func() time.Time
}

func NewAggregator(codec *Codec, users UserDirectory) *Aggregator {
	return &Aggregator{
		codec: codec,
		users: users,
		now:   time.Now,
	}
}

// Summarize reduces msgs (every ledger row involving userID, any order) to
// one summary per counterpart plus exactly one self entry, sorted by last
// message time descending.
//
// hasSelfMessage must come from the same ledger snapshot as msgs.
func (a *Aggregator) Summarize(ctx context.Context, userID uint64, msgs []*Message, hasSelfMessage bool) ([]*ConversationSummary, error) {
	latest := latestPerPair(msgs)
	selfKey := newPairKey(userID, userID)

	summaries := make([]*ConversationSummary, 0, len(latest)+1)

	for key, msg := range latest {
		if key == selfKey {
			continue
		}

		counterpartID := key.lo
		if counterpartID == userID {
			counterpartID = key.hi
		}

		counterpart, err := a.users.GetByID(ctx, counterpartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Counterpart deleted; the conversation is silently omitted.
				continue
			}
			return nil, fmt.Errorf("failed to resolve counterpart %d: %w", counterpartID, err)
		}

		summaries = append(summaries, &ConversationSummary{
			ID:              counterpart.ID,
			Name:            counterpart.Name,
			Image:           counterpart.Image,
			LastMessage:     a.displayText(msg),
			LastMessageTime: msg.CreatedAt,
		})
	}

	if self, err := a.selfSummary(ctx, userID, latest[selfKey], hasSelfMessage); err != nil {
		return nil, err
	} else if self != nil {
		summaries = append(summaries, self)
	}

	// Map iteration order is random, so equal times need a secondary key
	// for the order to hold across repeated calls over the same rows.
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageTime.Equal(summaries[j].LastMessageTime) {
			return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
		}
		return summaries[i].ID > summaries[j].ID
	})

	return summaries, nil
}

// selfSummary builds the one entry every chat list carries for the user
// themself. With no self message on record, the placeholder text is used
// and the time defaults to "now", which intentionally sorts it first.
func (a *Aggregator) selfSummary(ctx context.Context, userID uint64, lastSelf *Message, hasSelfMessage bool) (*ConversationSummary, error) {
	self, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown user: no history and nothing to describe.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}

	summary := &ConversationSummary{
		ID:    self.ID,
		Name:  self.Name,
		Image: self.Image,
	}

	if hasSelfMessage && lastSelf != nil {
		summary.LastMessage = a.displayText(lastSelf)
		summary.LastMessageTime = lastSelf.CreatedAt
	} else {
		summary.LastMessage = noMessagesPlaceholder
		summary.LastMessageTime = a.now()
	}

	return summary, nil
}

// latestPerPair is a single-pass reduction: for every unordered pair it
// keeps the message with the latest creation time, breaking timestamp
// ties by highest ID so repeated calls over the same rows agree.
func latestPerPair(msgs []*Message) map[pairKey]*Message {
	latest := make(map[pairKey]*Message)
	for _, msg := range msgs {
		key := newPairKey(msg.SenderID, msg.ReceiverID)
		best, ok := latest[key]
		if !ok || newerThan(msg, best) {
			latest[key] = msg
		}
	}
	return latest
}

func newerThan(a, b *Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (a *Aggregator) displayText(msg *Message) string {
	text := a.codec.Decode(msg.Content).Text
	if text == "" {
		return noMessagesPlaceholder
	}
	return text
}
