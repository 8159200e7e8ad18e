package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/pagex"
)

const maxMessageLength = 5000

// MessageService carries the conversation between a bounty's creator and
// its assignee. Callers are expected to have passed the participant guard.
type MessageService struct {
	Store store.Store
	Now   Clock
}

func (s *MessageService) List(ctx context.Context, bountyID, cursor, limit string) (pagex.Page[domain.Message], error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return pagex.Page[domain.Message]{}, err
	}
	n := pagex.ParseLimit(limit, pagex.DefaultLimit, pagex.MaxLimit)

	rows, err := s.Store.Messages().ListMessages(ctx, bountyID, after, n+1)
	if err != nil {
		return pagex.Page[domain.Message]{}, err
	}
	return pagex.NewPage(rows, n, func(m domain.Message) pagex.Cursor {
		return pagex.Cursor{OrderingKey: m.CreatedAt, ID: m.ID}
	}), nil
}

// Post sends content from senderID to the other participant of the bounty.
func (s *MessageService) Post(ctx context.Context, senderID, bountyID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return domain.Message{}, invalid("content is too long")
	}

	b, err := s.Store.Bounties().GetBountyByID(ctx, bountyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Message{}, ErrBountyNotFound
		}
		return domain.Message{}, err
	}

	var recipient string
	switch {
	case senderID == b.CreatorID && b.AssigneeID != nil:
		recipient = *b.AssigneeID
	case senderID == b.CreatorID:
		return domain.Message{}, invalid("Bounty has no assigned developer yet")
	default:
		recipient = b.CreatorID
	}

	now := s.Now.now()
	m := domain.Message{
		ID:          idx.NewAt(now).String(),
		BountyID:    bountyID,
		SenderID:    senderID,
		RecipientID: recipient,
		Content:     content,
		CreatedAt:   now,
	}
	if err := s.Store.Messages().CreateMessage(ctx, m); err != nil {
		return domain.Message{}, err
	}
	return m, nil
}
