// Package notify turns notification intents into persisted records and fans
// them out to connected sessions.
//
// Emit persists first and publishes second. A persistence failure is returned
// to the caller and nothing is delivered; delivery itself is best-effort and
// never reported back.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coursehub/internal/model"
)

var ErrInvalidNotification = errors.New("invalid notification")

// Repository is the durable store for notifications.
type Repository interface {
	Insert(ctx context.Context, n model.Notification) (model.Notification, error)
	List(ctx context.Context, userID string, offset, limit int) (model.Page, error)
}

// Router delivers serialized payloads to live sessions.
type Router interface {
	RouteToUser(userID string, payload []byte)
	Broadcast(payload []byte)
}

type Dispatcher struct {
	repo   Repository
	router Router
	log    *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func New(repo Repository, router Router, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		repo:   repo,
		router: router,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
	}
}

func (d *Dispatcher) Emit(ctx context.Context, title, message string, target model.Target, relatedID string) (model.Notification, error) {
	if err := validate(title, message, target); err != nil {
		return model.Notification{}, err
	}

	n := model.Notification{
		ID:        d.newID(),
		Title:     title,
		Message:   message,
		Target:    target,
		RelatedID: relatedID,
		CreatedAt: d.now(),
	}

	stored, err := d.repo.Insert(ctx, n)
	if err != nil {
		metricEmitFailures.Inc()
		d.log.Warn("notification not persisted",
			zap.String("target", string(target.Kind)), zap.Error(err))
		return model.Notification{}, err
	}
	metricEmitted.WithLabelValues(string(stored.Target.Kind)).Inc()

	payload, err := json.Marshal(model.Envelope{Type: model.EnvelopeNotification, Body: stored})
	if err != nil {
		d.log.Error("notification not serialized", zap.Stringer("id", stored.ID), zap.Error(err))
		return stored, nil
	}

	if stored.Target.IsPlatform() {
		d.router.Broadcast(payload)
	} else {
		d.router.RouteToUser(stored.Target.UserID, payload)
	}

	d.log.Debug("notification emitted",
		zap.Stringer("id", stored.ID),
		zap.String("target", string(stored.Target.Kind)),
		zap.String("user_id", stored.Target.UserID))
	return stored, nil
}

// List returns the page of notifications visible to userID.
func (d *Dispatcher) List(ctx context.Context, userID string, offset, limit int) (model.Page, error) {
	return d.repo.List(ctx, userID, offset, limit)
}

func validate(title, message string, target model.Target) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidNotification)
	}
	switch target.Kind {
	case model.TargetPlatform:
		if target.UserID != "" {
			return fmt.Errorf("%w: platform target takes no user", ErrInvalidNotification)
		}
	case model.TargetUser:
		if _, err := uuid.Parse(target.UserID); err != nil {
			return fmt.Errorf("%w: user target needs a valid user id", ErrInvalidNotification)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", ErrInvalidNotification, target.Kind)
	}
	return nil
}
