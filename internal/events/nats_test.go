package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"coursehub/internal/model"
)

type fakeEmitter struct {
	calls []model.Notification
	err   error
}

func (f *fakeEmitter) Emit(ctx context.Context, title, message string, target model.Target, relatedID string) (model.Notification, error) {
	if f.err != nil {
		return model.Notification{}, f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return model.Notification{}, errors.New("expected a deadline")
	}
	n := model.Notification{ID: uuid.New(), Title: title, Message: message, Target: target, RelatedID: relatedID}
	f.calls = append(f.calls, n)
	return n, nil
}

func TestHandlePlatformIntent(t *testing.T) {
	em := &fakeEmitter{}
	s := NewSubscriber(nil, em, nil)

	err := s.Handle([]byte(`{"title":"New course","message":"Go 101","target":"platform","related_id":"c-1"}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(em.calls) != 1 {
		t.Fatalf("expected one emit, got %d", len(em.calls))
	}
	got := em.calls[0]
	if !got.Target.IsPlatform() || got.Title != "New course" || got.RelatedID != "c-1" {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestHandleUserIntent(t *testing.T) {
	em := &fakeEmitter{}
	s := NewSubscriber(nil, em, nil)
	userID := uuid.NewString()

	err := s.Handle([]byte(`{"title":"t","message":"m","target":"user","user_id":"` + userID + `"}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := em.calls[0].Target; got.Kind != model.TargetUser || got.UserID != userID {
		t.Fatalf("unexpected target: %+v", got)
	}
}

func TestHandleMalformedIntent(t *testing.T) {
	cases := []string{
		`not json`,
		`{"title":"t","message":"m","target":"everyone"}`,
	}
	for _, data := range cases {
		em := &fakeEmitter{}
		err := NewSubscriber(nil, em, nil).Handle([]byte(data))
		if !errors.Is(err, ErrMalformedIntent) {
			t.Fatalf("Handle(%q): expected ErrMalformedIntent, got %v", data, err)
		}
		if len(em.calls) != 0 {
			t.Fatalf("Handle(%q): emitted despite malformed intent", data)
		}
	}
}

func TestHandlePropagatesEmitError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSubscriber(nil, &fakeEmitter{err: boom}, nil)

	if err := s.Handle([]byte(`{"title":"t","message":"m","target":"platform"}`)); !errors.Is(err, boom) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestCloseWithoutStart(t *testing.T) {
	NewSubscriber(nil, &fakeEmitter{}, nil).Close()
}
