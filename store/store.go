// Package store persists chat sessions and their messages behind a pluggable
// Driver. SQL drivers (sqlite, mysql, postgres) provide durable storage; the
// memory driver backs the startup fallback when the database is unreachable.
package store

import "context"

// Driver is the storage backend interface implemented by each database driver.
type Driver interface {
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	CreateSession(ctx context.Context, create *Session) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	GetSession(ctx context.Context, find *FindSession) (*Session, error)

	CreateSessionMessage(ctx context.Context, create *CreateSessionMessage) (*SessionMessage, error)
	ListSessionMessages(ctx context.Context, find *FindSessionMessage) ([]*SessionMessage, error)
}

// Store is the session store facade handed to the HTTP services.
type Store struct {
	driver Driver
}

// New creates a Store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Close closes the underlying driver.
func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateSession persists a new session.
func (s *Store) CreateSession(ctx context.Context, create *Session) (*Session, error) {
	return s.driver.CreateSession(ctx, create)
}

// ListSessions lists sessions matching the given filter.
func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	return s.driver.ListSessions(ctx, find)
}

// GetSession returns the first session matching the given filter, or nil.
func (s *Store) GetSession(ctx context.Context, find *FindSession) (*Session, error) {
	return s.driver.GetSession(ctx, find)
}

// CreateSessionMessage appends a message to a session.
func (s *Store) CreateSessionMessage(ctx context.Context, create *CreateSessionMessage) (*SessionMessage, error) {
	return s.driver.CreateSessionMessage(ctx, create)
}

// ListSessionMessages returns all messages for a session, oldest first.
func (s *Store) ListSessionMessages(ctx context.Context, find *FindSessionMessage) ([]*SessionMessage, error) {
	return s.driver.ListSessionMessages(ctx, find)
}
