package domain

import "time"

// AuthEventType names an auditable account action.
type AuthEventType string

const (
	EventUserRegistered      AuthEventType = "user_registered"
	EventLoginSucceeded      AuthEventType = "login_succeeded"
	EventLoginFailed         AuthEventType = "login_failed"
	EventTokenRefreshed      AuthEventType = "token_refreshed"
	EventUserDeleted         AuthEventType = "user_deleted"
	EventRoleChanged         AuthEventType = "role_changed"
	EventProfileImageUpdated AuthEventType = "profile_image_updated"
)

// AuthEvent is an entry in the account audit trail.
type AuthEvent struct {
	Type       AuthEventType
	Username   string
	UserID     string
	ActorID    string // who performed the action when it differs from the subject
	Detail     string
	OccurredAt time.Time
}
