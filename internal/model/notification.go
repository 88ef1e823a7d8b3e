package model

import (
	"time"

	"github.com/google/uuid"
)

type TargetKind string

const (
	TargetPlatform TargetKind = "platform"
	TargetUser     TargetKind = "user"
)

// Target addresses a notification either to every user on the platform or to
// a single user.
type Target struct {
	Kind   TargetKind `json:"kind"`
	UserID string     `json:"userId,omitempty"`
}

func PlatformTarget() Target { return Target{Kind: TargetPlatform} }

func UserTarget(userID string) Target { return Target{Kind: TargetUser, UserID: userID} }

func (t Target) IsPlatform() bool { return t.Kind == TargetPlatform }

type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Target    Target    `json:"target"`
	RelatedID string    `json:"relatedId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// VisibleTo reports whether userID should see n in its notification list.
func (n Notification) VisibleTo(userID string) bool {
	if n.Target.IsPlatform() {
		return true
	}
	return n.Target.Kind == TargetUser && n.Target.UserID == userID
}

type Page struct {
	Items  []Notification `json:"items"`
	Total  int64          `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}
