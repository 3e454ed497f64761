package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenticdata/datachat/store"
)

func (d *DB) CreateSession(ctx context.Context, create *store.Session) (*store.Session, error) {
	stmt := "INSERT INTO `session` (`uid`, `app_name`, `user_id`) VALUES (?, ?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt, create.UID, create.AppName, create.UserID); err != nil {
		return nil, err
	}
	// Fetch it back to populate id and timestamps.
	return d.GetSession(ctx, &store.FindSession{UID: &create.UID})
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UID; v != nil {
		where, args = append(where, "`uid` = ?"), append(args, *v)
	}
	if v := find.AppName; v != nil {
		where, args = append(where, "`app_name` = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "`user_id` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, app_name, user_id, UNIX_TIMESTAMP(created_ts), UNIX_TIMESTAMP(updated_ts)
		 FROM session WHERE %s ORDER BY updated_ts DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Session
	for rows.Next() {
		s := &store.Session{}
		if err := rows.Scan(&s.ID, &s.UID, &s.AppName, &s.UserID, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
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

func (d *DB) CreateSessionMessage(ctx context.Context, create *store.CreateSessionMessage) (*store.SessionMessage, error) {
	stmt := "INSERT INTO `session_message` (`session_id`, `role`, `content`) VALUES (?, ?, ?)"
	result, err := d.db.ExecContext(ctx, stmt, create.SessionID, create.Role, create.Content)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	m := &store.SessionMessage{
		ID:        int32(rawID),
		SessionID: create.SessionID,
		Role:      create.Role,
		Content:   create.Content,
	}
	_ = d.db.QueryRowContext(ctx, "SELECT UNIX_TIMESTAMP(created_ts) FROM session_message WHERE id = ?", m.ID).Scan(&m.CreatedTs)
	return m, nil
}

func (d *DB) ListSessionMessages(ctx context.Context, find *store.FindSessionMessage) ([]*store.SessionMessage, error) {
	query := `SELECT id, session_id, role, content, UNIX_TIMESTAMP(created_ts)
	          FROM session_message WHERE session_id = ? ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, find.SessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.SessionMessage
	for rows.Next() {
		m := &store.SessionMessage{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
