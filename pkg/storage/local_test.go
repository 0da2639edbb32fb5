package storage

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalPutGet(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	id := uuid.New()
	data := []byte("attachment bytes")

	if err := l.Put(ctx, id, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestLocalGetMissing(t *testing.T) {
	l := newLocal(t)
	_, err := l.Get(context.Background(), uuid.New())
	if !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestLocalDownloadHeaders(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()
	id := uuid.New()
	data := []byte("hello")
	if err := l.Put(ctx, id, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	att := model.Attachment{ID: id, FileName: "hello.txt", Size: int64(len(data)), ContentType: "text/plain"}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/binaryContents/"+id.String()+"/download", nil)
	if err := l.Download(w, r, att); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if w.Body.String() != "hello" {
		t.Fatalf("body = %q", w.Body.String())
	}
}
