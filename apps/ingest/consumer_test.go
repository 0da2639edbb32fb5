package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/model"
)

type createdCall struct {
	channelID uuid.UUID
	authorID  uuid.UUID
	content   string
}

type stubCreator struct {
	calls []createdCall
}

func (s *stubCreator) Create(_ context.Context, channelID, authorID uuid.UUID, content string, _ []chat.AttachmentUpload) (*model.MessageView, error) {
	s.calls = append(s.calls, createdCall{channelID, authorID, content})
	return &model.MessageView{ID: 1, ChannelID: channelID, Content: content}, nil
}

func TestHandleEventPersists(t *testing.T) {
	stub := &stubCreator{}
	c := &Consumer{messages: stub}

	event := model.MessageEvent{
		ChannelID: uuid.New(),
		AuthorID:  uuid.New(),
		Content:   "hello from kafka",
	}
	value, _ := json.Marshal(event)

	c.handleEvent(context.Background(), value)

	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(stub.calls))
	}
	got := stub.calls[0]
	if got.channelID != event.ChannelID || got.authorID != event.AuthorID || got.content != event.Content {
		t.Fatalf("call = %+v, want event %+v", got, event)
	}
}

func TestHandleEventSkipsGarbage(t *testing.T) {
	stub := &stubCreator{}
	c := &Consumer{messages: stub}
	ctx := context.Background()

	c.handleEvent(ctx, []byte("not json"))

	missingAuthor, _ := json.Marshal(model.MessageEvent{ChannelID: uuid.New(), Content: "x"})
	c.handleEvent(ctx, missingAuthor)

	missingChannel, _ := json.Marshal(model.MessageEvent{AuthorID: uuid.New(), Content: "x"})
	c.handleEvent(ctx, missingChannel)

	if len(stub.calls) != 0 {
		t.Fatalf("garbage events reached the store: %d calls", len(stub.calls))
	}
}
