package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursehub/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id             UUID PRIMARY KEY,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	target_kind    TEXT NOT NULL CHECK (target_kind IN ('platform', 'user')),
	target_user_id TEXT,
	related_id     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS notifications_target_idx
	ON notifications (target_kind, target_user_id, created_at DESC);
`

const visibleWhere = `target_kind = 'platform' OR (target_kind = 'user' AND target_user_id = $1)`

// Postgres is the notification repository backed by a pgx pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, dbError("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, dbError("ping", err)
	}
	return pool, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p.db == nil {
		return dbError("ensure schema", fmt.Errorf("db not configured"))
	}
	_, err := p.db.Exec(ctx, schema)
	return dbError("ensure schema", err)
}

func (p *Postgres) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	if p.db == nil {
		return model.Notification{}, dbError("insert notification", fmt.Errorf("db not configured"))
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO notifications (id, title, message, target_kind, target_user_id, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.Title, n.Message, string(n.Target.Kind), nullable(n.Target.UserID), nullable(n.RelatedID), n.CreatedAt)
	if err != nil {
		return model.Notification{}, dbError("insert notification", err)
	}
	return n, nil
}

func (p *Postgres) Count(ctx context.Context, userID string) (int64, error) {
	if p.db == nil {
		return 0, dbError("count notifications", fmt.Errorf("db not configured"))
	}
	var total int64
	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE `+visibleWhere, userID).Scan(&total)
	if err != nil {
		return 0, dbError("count notifications", err)
	}
	return total, nil
}

func (p *Postgres) List(ctx context.Context, userID string, offset, limit int) (model.Page, error) {
	offset, limit = NormalizePage(offset, limit)
	total, err := p.Count(ctx, userID)
	if err != nil {
		return model.Page{}, err
	}

	rows, err := p.db.Query(ctx, `
		SELECT id, title, message, target_kind, target_user_id, related_id, created_at
		FROM notifications
		WHERE `+visibleWhere+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return model.Page{}, dbError("list notifications", err)
	}

	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return model.Page{}, dbError("list notifications", err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return model.Page{Items: items, Total: total, Offset: offset, Limit: limit}, nil
}

func scanNotification(row pgx.CollectableRow) (model.Notification, error) {
	var (
		n         model.Notification
		kind      string
		userID    *string
		relatedID *string
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Message, &kind, &userID, &relatedID, &n.CreatedAt); err != nil {
		return model.Notification{}, err
	}
	n.Target.Kind = model.TargetKind(kind)
	if userID != nil {
		n.Target.UserID = *userID
	}
	if relatedID != nil {
		n.RelatedID = *relatedID
	}
	return n, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
