package api

import "time"

// Feed status values carried by FeedMessage.Status.
const (
	StatusSubscribed   = "SUBSCRIBED"
	StatusChannelError = "CHANNEL_ERROR"
	StatusTimedOut     = "TIMED_OUT"
	StatusClosed       = "CLOSED"
)

// Change types carried by ChangeEvent.Type.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

type Empty struct{}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse answers SignUp, SignIn and RefreshToken. When
// ConfirmationRequired is set no tokens are issued.
type AuthResponse struct {
	UserID               string    `json:"user_id"`
	Email                string    `json:"email,omitempty"`
	AccessToken          string    `json:"access_token,omitempty"`
	RefreshToken         string    `json:"refresh_token,omitempty"`
	ExpiresAt            time.Time `json:"expires_at"`
	ConfirmationRequired bool      `json:"confirmation_required,omitempty"`
}

type Task struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TaskText   string    `json:"task_text"`
	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListTasksRequest selects the caller's tasks. UserID must match the
// authenticated user.
type ListTasksRequest struct {
	UserID string `json:"user_id"`
}

type ListTasksResponse struct {
	Tasks []Task `json:"tasks"`
}

type InsertTaskRequest struct {
	UserID   string `json:"user_id"`
	TaskText string `json:"task_text"`
}

type InsertTaskResponse struct {
	Task Task `json:"task"`
}

type UpdateTaskRequest struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	IsComplete bool   `json:"is_complete"`
}

type DeleteTaskRequest struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// SubscribeRequest opens a change feed on Table filtered to UserID. An
// empty Events list means every change type.
type SubscribeRequest struct {
	Table  string   `json:"table"`
	UserID string   `json:"user_id"`
	Events []string `json:"events,omitempty"`
}

type ChangeEvent struct {
	Type        string    `json:"type"`
	Table       string    `json:"table"`
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	CommittedAt time.Time `json:"committed_at"`
}

// FeedMessage is one frame of the Subscribe stream: either a status change
// or a change event.
type FeedMessage struct {
	Status string       `json:"status,omitempty"`
	Event  *ChangeEvent `json:"event,omitempty"`
}
