// Package events accepts notification intents published by other services on
// a NATS subject and hands them to the dispatcher.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"coursehub/internal/model"
)

const handleTimeout = 10 * time.Second

var ErrMalformedIntent = errors.New("malformed intent")

// Emitter is satisfied by *notify.Dispatcher.
type Emitter interface {
	Emit(ctx context.Context, title, message string, target model.Target, relatedID string) (model.Notification, error)
}

// Intent is the wire form of a notification request.
type Intent struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Target    string `json:"target"`
	UserID    string `json:"user_id,omitempty"`
	RelatedID string `json:"related_id,omitempty"`
}

func (i Intent) target() (model.Target, error) {
	switch model.TargetKind(i.Target) {
	case model.TargetPlatform:
		return model.PlatformTarget(), nil
	case model.TargetUser:
		return model.UserTarget(i.UserID), nil
	default:
		return model.Target{}, fmt.Errorf("%w: unknown target %q", ErrMalformedIntent, i.Target)
	}
}

func Connect(url string) (*natspkg.Conn, error) {
	return natspkg.Connect(url, natspkg.Name("coursehub"))
}

type Subscriber struct {
	nc      *natspkg.Conn
	sub     *natspkg.Subscription
	emitter Emitter
	log     *zap.Logger
}

func NewSubscriber(nc *natspkg.Conn, emitter Emitter, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{nc: nc, emitter: emitter, log: logger}
}

func (s *Subscriber) Start(subject string) error {
	sub, err := s.nc.Subscribe(subject, func(msg *natspkg.Msg) {
		if err := s.Handle(msg.Data); err != nil {
			s.log.Warn("intent dropped", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub
	s.log.Info("intake subscribed", zap.String("subject", subject))
	return nil
}

// Handle decodes one intent and emits it. Errors are returned for logging;
// there is no redelivery.
func (s *Subscriber) Handle(data []byte) error {
	var intent Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedIntent, err)
	}
	target, err := intent.target()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	n, err := s.emitter.Emit(ctx, intent.Title, intent.Message, target, intent.RelatedID)
	if err != nil {
		return err
	}
	s.log.Debug("intent emitted", zap.Stringer("id", n.ID))
	return nil
}

func (s *Subscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
