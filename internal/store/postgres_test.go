package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"coursehub/internal/model"
)

func TestPostgresWithoutPool(t *testing.T) {
	p := NewPostgres(nil)
	_, err := p.Insert(context.Background(), newNotification("t", model.PlatformTarget(), time.Now()))
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) || dbErr.Op != "insert notification" {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
}

// Runs against a real database when COURSEHUB_TEST_DATABASE_URL is set.
func TestPostgres_InsertAndList(t *testing.T) {
	dsn := os.Getenv("COURSEHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("COURSEHUB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer pool.Close()

	p := NewPostgres(pool)
	if err := p.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	alice := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	personal := newNotification("personal", model.UserTarget(alice), base)
	personal.RelatedID = "course-" + uuid.NewString()
	if _, err := p.Insert(ctx, personal); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	page, err := p.List(ctx, alice, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found bool
	for _, n := range page.Items {
		if n.ID == personal.ID {
			found = true
			if n.RelatedID != personal.RelatedID || n.Target.UserID != alice {
				t.Fatalf("unexpected row: %+v", n)
			}
		}
	}
	if !found {
		t.Fatalf("inserted notification not listed for its user")
	}

	other, err := p.List(ctx, uuid.NewString(), 0, MaxLimit)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, n := range other.Items {
		if n.ID == personal.ID {
			t.Fatalf("user notification visible to another user")
		}
	}
}
