package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"coursehub/internal/model"
)

func newNotification(title string, target model.Target, at time.Time) model.Notification {
	return model.Notification{ID: uuid.New(), Title: title, Message: title + " body", Target: target, CreatedAt: at}
}

func TestMemory_ListVisibility(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.Insert(ctx, newNotification("platform", model.PlatformTarget(), base)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, newNotification("for-u1", model.UserTarget("u1"), base.Add(time.Minute))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, newNotification("for-u2", model.UserTarget("u2"), base.Add(2*time.Minute))); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	page, err := s.List(ctx, "u1", 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 visible notifications, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].Title != "for-u1" || page.Items[1].Title != "platform" {
		t.Fatalf("expected newest first, got %q then %q", page.Items[0].Title, page.Items[1].Title)
	}
}

func TestMemory_ListPagination(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Insert(ctx, newNotification("n", model.PlatformTarget(), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	page, err := s.List(ctx, "anyone", 3, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("expected total 5 and 2 items, got %d/%d", page.Total, len(page.Items))
	}

	page, err = s.List(ctx, "anyone", 10, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("expected empty non-nil items past the end")
	}

	count, err := s.Count(ctx, "anyone")
	if err != nil || count != 5 {
		t.Fatalf("expected count 5, got %d (%v)", count, err)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Insert(ctx, newNotification("n", model.PlatformTarget(), time.Now()))
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestMemory_PersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "notifications.json")
	ctx := context.Background()

	s1, err := NewMemoryWithOptions(Options{StateFile: path})
	if err != nil {
		t.Fatalf("NewMemoryWithOptions: %v", err)
	}
	n := newNotification("persisted", model.UserTarget("u1"), time.Now().UTC())
	n.RelatedID = "course-1"
	if _, err := s1.Insert(ctx, n); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 state file, got %v", info.Mode().Perm())
	}

	s2, err := NewMemoryWithOptions(Options{StateFile: path})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	page, err := s2.List(ctx, "u1", 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != n.ID || page.Items[0].RelatedID != "course-1" {
		t.Fatalf("unexpected reloaded items: %+v", page.Items)
	}
}

func TestMemory_InsertRollsBackOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	s, err := NewMemoryWithOptions(Options{StateFile: filepath.Join(blocker, "notifications.json")})
	if err != nil {
		t.Fatalf("NewMemoryWithOptions: %v", err)
	}
	// a regular file where the state directory should be makes every write fail
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = s.Insert(context.Background(), newNotification("n", model.PlatformTarget(), time.Now()))
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
	if count, _ := s.Count(context.Background(), "u"); count != 0 {
		t.Fatalf("expected failed insert to be rolled back, got %d", count)
	}
}

func TestMemory_RejectsUnknownStateVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	if err := os.WriteFile(path, []byte(`{"version":9,"notifications":[]}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewMemoryWithOptions(Options{StateFile: path}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct{ offset, limit, wantOffset, wantLimit int }{
		{-1, 0, 0, DefaultLimit},
		{5, 500, 5, MaxLimit},
		{2, 7, 2, 7},
	}
	for _, tc := range cases {
		o, l := NormalizePage(tc.offset, tc.limit)
		if o != tc.wantOffset || l != tc.wantLimit {
			t.Fatalf("NormalizePage(%d,%d) = %d,%d", tc.offset, tc.limit, o, l)
		}
	}
}
