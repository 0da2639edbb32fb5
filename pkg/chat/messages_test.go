package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
)

func TestMessageCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")

	view, err := e.messageSvc.Create(ctx, channel, author, "hello", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Content != "hello" {
		t.Fatalf("content = %q", view.Content)
	}
	if view.Author.Username != "alice" {
		t.Fatalf("author = %+v", view.Author)
	}
	if !view.CreatedAt.Equal(view.UpdatedAt) {
		t.Fatalf("fresh message has createdAt != updatedAt")
	}
	if e.messages.count(channel) != 1 {
		t.Fatalf("message not persisted")
	}
}

func TestMessageCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")

	if _, err := e.messageSvc.Create(ctx, channel, author, "", nil); !errors.Is(err, &errs.Error{Code: errs.CodeInvalidArgument}) {
		t.Fatalf("empty message: expected INVALID_ARGUMENT, got %v", err)
	}
	if _, err := e.messageSvc.Create(ctx, uuid.New(), author, "hi", nil); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("unknown channel: expected NOT_FOUND, got %v", err)
	}
	if _, err := e.messageSvc.Create(ctx, channel, uuid.New(), "hi", nil); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("unknown author: expected NOT_FOUND, got %v", err)
	}
}

func TestMessageCreateWithAttachments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")

	uploads := []AttachmentUpload{
		{FileName: "a.png", ContentType: "image/png", Bytes: []byte("png-bytes")},
		{FileName: "b.txt", ContentType: "text/plain", Bytes: []byte("text")},
	}
	view, err := e.messageSvc.Create(ctx, channel, author, "with files", uploads)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(view.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(view.Attachments))
	}
	for _, att := range view.Attachments {
		if _, ok := e.blob.m[att.ID]; !ok {
			t.Fatalf("attachment %s bytes not written", att.ID)
		}
	}
	if view.Attachments[0].FileName != "a.png" || view.Attachments[0].Size != int64(len("png-bytes")) {
		t.Fatalf("attachment metadata wrong: %+v", view.Attachments[0])
	}
}

// A blob write failure aborts the whole creation. No message row and no
// attachment metadata survive.
func TestMessageCreateStorageFailureAborts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")
	e.blob.putErr = errs.StorageFailure(errors.New("disk full"))

	uploads := []AttachmentUpload{{FileName: "a.png", ContentType: "image/png", Bytes: []byte("x")}}
	_, err := e.messageSvc.Create(ctx, channel, author, "doomed", uploads)
	if !errors.Is(err, &errs.Error{Code: errs.CodeStorageFailure}) {
		t.Fatalf("expected STORAGE_FAILURE, got %v", err)
	}
	if e.blob.putSeen == 0 {
		t.Fatalf("blob store never consulted")
	}
	if e.messages.count(channel) != 0 {
		t.Fatalf("message row persisted despite storage failure")
	}
	if len(e.attachments.m) != 0 {
		t.Fatalf("attachment metadata persisted despite storage failure")
	}
}

// Editing changes content and updatedAt only. The ordering key
// createdAt never moves.
func TestMessageUpdateKeepsCreatedAt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")

	created, err := e.messageSvc.Create(ctx, channel, author, "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	updated, err := e.messageSvc.Update(ctx, created.ID, "v2")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != "v2" {
		t.Fatalf("content = %q", updated.Content)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt moved: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if updated.ID != created.ID {
		t.Fatalf("id changed on edit")
	}
}

func TestMessageUpdateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.messageSvc.Update(ctx, 42, ""); !errors.Is(err, &errs.Error{Code: errs.CodeInvalidArgument}) {
		t.Fatalf("empty content: expected INVALID_ARGUMENT, got %v", err)
	}
	if _, err := e.messageSvc.Update(ctx, 42, "x"); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("unknown id: expected NOT_FOUND, got %v", err)
	}
}

func TestMessageDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.seedUser(t, "alice")
	channel := e.seedPublicChannel(t, "general")

	view, err := e.messageSvc.Create(ctx, channel, author, "bye", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := e.messageSvc.Delete(ctx, view.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e.messages.count(channel) != 0 {
		t.Fatalf("message still present")
	}
	if err := e.messageSvc.Delete(ctx, view.ID); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("second Delete: expected NOT_FOUND, got %v", err)
	}
}
