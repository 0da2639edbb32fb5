package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/presence"
)

func TestUserCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	view, err := e.userSvc.Create(ctx, "alice", "alice@example.com", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Username != "alice" || view.Email != "alice@example.com" {
		t.Fatalf("view = %+v", view)
	}
	// Creation counts as activity.
	if view.Online != true {
		t.Fatalf("fresh user should be online")
	}
}

func TestUserCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.userSvc.Create(ctx, "", "a@example.com", nil); !errors.Is(err, &errs.Error{Code: errs.CodeInvalidArgument}) {
		t.Fatalf("empty username: expected INVALID_ARGUMENT, got %v", err)
	}
	if _, err := e.userSvc.Create(ctx, "alice", "", nil); !errors.Is(err, &errs.Error{Code: errs.CodeInvalidArgument}) {
		t.Fatalf("empty email: expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestUserCreateConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.userSvc.Create(ctx, "alice", "alice@example.com", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.userSvc.Create(ctx, "alice", "other@example.com", nil); !errors.Is(err, &errs.Error{Code: errs.CodeConflict}) {
		t.Fatalf("duplicate username: expected CONFLICT, got %v", err)
	}
	if _, err := e.userSvc.Create(ctx, "bob", "alice@example.com", nil); !errors.Is(err, &errs.Error{Code: errs.CodeConflict}) {
		t.Fatalf("duplicate email: expected CONFLICT, got %v", err)
	}
}

func TestUserCreateWithProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	profile := &AttachmentUpload{FileName: "me.jpg", ContentType: "image/jpeg", Bytes: []byte("jpeg")}
	view, err := e.userSvc.Create(ctx, "alice", "alice@example.com", profile)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.ProfileID == nil {
		t.Fatalf("profile id not set")
	}
	if _, ok := e.blob.m[*view.ProfileID]; !ok {
		t.Fatalf("profile bytes not written")
	}
	if _, ok := e.attachments.m[*view.ProfileID]; !ok {
		t.Fatalf("profile metadata not written")
	}
}

func TestUserUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedUser(t, "alice")

	view, err := e.userSvc.Update(ctx, id, "alice2", "alice2@example.com", nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.Username != "alice2" || view.Email != "alice2@example.com" {
		t.Fatalf("update not applied: %+v", view)
	}
}

// Renaming releases the old claim, so the previous username and email
// become available to new accounts.
func TestUserRenameFreesOldName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedUser(t, "alice")

	if _, err := e.userSvc.Update(ctx, id, "alicia", "alicia@example.com", nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := e.userSvc.Create(ctx, "alice", "alice@example.com", nil); err != nil {
		t.Fatalf("old name not reusable after rename: %v", err)
	}
}

func TestUserRenameToTakenNameConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "alice")
	bob := e.seedUser(t, "bob")

	if _, err := e.userSvc.Update(ctx, bob, "alice", "", nil); !errors.Is(err, &errs.Error{Code: errs.CodeConflict}) {
		t.Fatalf("taken username: expected CONFLICT, got %v", err)
	}
	if _, err := e.userSvc.Update(ctx, bob, "", "alice@example.com", nil); !errors.Is(err, &errs.Error{Code: errs.CodeConflict}) {
		t.Fatalf("taken email: expected CONFLICT, got %v", err)
	}
	view, err := e.userSvc.Find(ctx, bob)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if view.Username != "bob" || view.Email != "bob@example.com" {
		t.Fatalf("failed rename changed the row: %+v", view)
	}
}

func TestUserDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedUser(t, "alice")

	if err := e.userSvc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.userSvc.Find(ctx, id); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("expected NOT_FOUND after delete, got %v", err)
	}
}

// Online is a pure function of the liveness timestamp; the boundary sits
// at the presence window.
func TestUserOnlineWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedUser(t, "alice")

	online, err := e.userSvc.Online(ctx, id)
	if err != nil {
		t.Fatalf("Online: %v", err)
	}
	if online {
		t.Fatalf("user with no liveness record reported online")
	}

	e.presence.m[id] = time.Now().Add(-presence.Window - time.Second)
	if online, _ = e.userSvc.Online(ctx, id); online {
		t.Fatalf("stale liveness reported online")
	}

	e.presence.m[id] = time.Now().Add(-presence.Window + time.Minute)
	if online, _ = e.userSvc.Online(ctx, id); !online {
		t.Fatalf("recent liveness reported offline")
	}
}

func TestUserTouchRefreshesPresence(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedUser(t, "alice")
	unknown := uuid.New()

	if err := e.userSvc.Touch(ctx, id); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if _, ok := e.presence.m[id]; !ok {
		t.Fatalf("touch left no liveness record")
	}
	if err := e.userSvc.Touch(ctx, unknown); !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("touch of unknown user: expected NOT_FOUND, got %v", err)
	}
}
