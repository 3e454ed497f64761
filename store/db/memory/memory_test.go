package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agenticdata/datachat/store"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := New()

	created, err := d.CreateSession(ctx, &store.Session{
		UID:     "abc123",
		AppName: "data_agent_chatbot",
		UserID:  "alice",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotZero(t, created.CreatedTs)

	uid := "abc123"
	got, err := d.GetSession(ctx, &store.FindSession{UID: &uid})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "alice", got.UserID)
	require.Equal(t, "data_agent_chatbot", got.AppName)
}

func TestGetSessionMissing(t *testing.T) {
	ctx := context.Background()
	d := New()

	uid := "nope"
	got, err := d.GetSession(ctx, &store.FindSession{UID: &uid})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListSessionsFiltersByUser(t *testing.T) {
	ctx := context.Background()
	d := New()

	_, err := d.CreateSession(ctx, &store.Session{UID: "s1", AppName: "app", UserID: "alice"})
	require.NoError(t, err)
	_, err = d.CreateSession(ctx, &store.Session{UID: "s2", AppName: "app", UserID: "bob"})
	require.NoError(t, err)

	user := "alice"
	list, err := d.ListSessions(ctx, &store.FindSession{UserID: &user})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "s1", list[0].UID)
}

func TestMessagesOrderedOldestFirst(t *testing.T) {
	ctx := context.Background()
	d := New()

	sess, err := d.CreateSession(ctx, &store.Session{UID: "s1", AppName: "app", UserID: "alice"})
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		_, err := d.CreateSessionMessage(ctx, &store.CreateSessionMessage{
			SessionID: sess.ID,
			Role:      "user",
			Content:   content,
		})
		require.NoError(t, err)
	}

	msgs, err := d.ListSessionMessages(ctx, &store.FindSessionMessage{SessionID: sess.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "third", msgs[2].Content)
}

func TestReturnedSessionsAreCopies(t *testing.T) {
	ctx := context.Background()
	d := New()

	created, err := d.CreateSession(ctx, &store.Session{UID: "s1", AppName: "app", UserID: "alice"})
	require.NoError(t, err)
	created.UserID = "mallory"

	uid := "s1"
	got, err := d.GetSession(ctx, &store.FindSession{UID: &uid})
	require.NoError(t, err)
	require.Equal(t, "alice", got.UserID)
}
