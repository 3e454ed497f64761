// Package memory implements the session store driver on in-process maps.
// It is the fallback used when the configured database cannot be reached at
// startup; sessions held here do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agenticdata/datachat/store"
)

// DB is the in-memory store driver.
type DB struct {
	mu        sync.RWMutex
	nextID    int32
	sessions  map[int32]*store.Session
	messages  map[int32][]*store.SessionMessage // keyed by session id
	nextMsgID int32
	now       func() time.Time
}

// New creates an empty in-memory driver.
func New() *DB {
	return &DB{
		sessions: make(map[int32]*store.Session),
		messages: make(map[int32][]*store.SessionMessage),
		now:      time.Now,
	}
}

func (d *DB) EnsureSchema(context.Context) error { return nil }
func (d *DB) Ping(context.Context) error         { return nil }
func (d *DB) Close() error                       { return nil }

func (d *DB) CreateSession(_ context.Context, create *store.Session) (*store.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	now := d.now().Unix()
	s := &store.Session{
		ID:        d.nextID,
		UID:       create.UID,
		AppName:   create.AppName,
		UserID:    create.UserID,
		CreatedTs: now,
		UpdatedTs: now,
	}
	d.sessions[s.ID] = s
	out := *s
	return &out, nil
}

func (d *DB) ListSessions(_ context.Context, find *store.FindSession) ([]*store.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var list []*store.Session
	for _, s := range d.sessions {
		if v := find.UID; v != nil && s.UID != *v {
			continue
		}
		if v := find.AppName; v != nil && s.AppName != *v {
			continue
		}
		if v := find.UserID; v != nil && s.UserID != *v {
			continue
		}
		out := *s
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedTs > list[j].UpdatedTs })
	return list, nil
}

func (d *DB) GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error) {
	list, err := d.ListSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) CreateSessionMessage(_ context.Context, create *store.CreateSessionMessage) (*store.SessionMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextMsgID++
	m := &store.SessionMessage{
		ID:        d.nextMsgID,
		SessionID: create.SessionID,
		Role:      create.Role,
		Content:   create.Content,
		CreatedTs: d.now().Unix(),
	}
	d.messages[create.SessionID] = append(d.messages[create.SessionID], m)
	out := *m
	return &out, nil
}

func (d *DB) ListSessionMessages(_ context.Context, find *store.FindSessionMessage) ([]*store.SessionMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msgs := d.messages[find.SessionID]
	list := make([]*store.SessionMessage, 0, len(msgs))
	for _, m := range msgs {
		out := *m
		list = append(list, &out)
	}
	return list, nil
}
