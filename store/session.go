package store

// Session is a single conversation scoped to (app name, user, session uid).
// Sessions are created on login and referenced on every chat turn. They are
// never deleted: logout is advisory and does not invalidate server-side state.
type Session struct {
	ID        int32
	UID       string
	AppName   string
	UserID    string
	CreatedTs int64
	UpdatedTs int64
}

// SessionMessage is one persisted turn within a session. The agent runtime
// replays these as conversation history when it receives the next message.
type SessionMessage struct {
	ID        int32
	SessionID int32
	Role      string // "user" | "model"
	Content   string
	CreatedTs int64
}

// FindSession filters for ListSessions / GetSession.
type FindSession struct {
	UID     *string
	AppName *string
	UserID  *string
}

// CreateSessionMessage is the payload for CreateSessionMessage.
type CreateSessionMessage struct {
	SessionID int32
	Role      string
	Content   string
}

// FindSessionMessage filters for ListSessionMessages.
type FindSessionMessage struct {
	SessionID int32
}
