package authsdk

import (
	"context"
	"net/http"
)

func messagesPath(bountyID string) string { return bountyPath(bountyID) + "/messages" }

// ListMessages returns a page of a bounty's messages, newest first.
// Creator or assignee only.
func (s *Session) ListMessages(ctx context.Context, bountyID string, page PageRequest) (*Page[Message], error) {
	var out Page[Message]
	c := get(messagesPath(bountyID), &out)
	c.query = page.values()
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostMessage sends content to the other participant of a bounty.
func (s *Session) PostMessage(ctx context.Context, bountyID, content string) (*Message, error) {
	var m Message
	err := s.send(ctx, call{
		method: http.MethodPost,
		path:   messagesPath(bountyID),
		body:   PostMessageRequest{Content: content},
		want:   http.StatusCreated,
		out:    &m,
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
