package chat

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/agenticdata/datachat/plugin/agent"
	"github.com/agenticdata/datachat/server/logger"
)

type fakeRunner struct {
	events  []agent.Event
	runErr  error
	calls   int
	channel chan agent.Event
}

func (f *fakeRunner) AppName() string { return "test" }

func (f *fakeRunner) Run(_ context.Context, _, _, _ string) (<-chan agent.Event, error) {
	f.calls++
	if f.runErr != nil {
		return nil, f.runErr
	}
	// Buffered so unconsumed events stay observable after a fail-fast stop.
	f.channel = make(chan agent.Event, len(f.events))
	for _, ev := range f.events {
		f.channel <- ev
	}
	close(f.channel)
	return f.channel, nil
}

func discardLogs() *logger.Pair {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &logger.Pair{Operational: l, Restricted: l}
}

func sqlEvent(sql string) agent.ModelEvent {
	return agent.ModelEvent{Parts: []agent.Part{{
		Call: &agent.ToolCall{Name: "submit_query", Args: map[string]any{"sql_query": sql}},
	}}}
}

func textEvent(text string) agent.ModelEvent {
	return agent.ModelEvent{Parts: []agent.Part{{Text: text}}}
}

func TestConverseRejectsMissingFields(t *testing.T) {
	runner := &fakeRunner{}
	o := NewOrchestrator(runner, discardLogs())

	for _, args := range [][3]string{
		{"", "s1", "hi"},
		{"u1", "", "hi"},
		{"u1", "s1", ""},
	} {
		_, kpi, err := o.Converse(context.Background(), args[0], args[1], args[2])
		require.ErrorIs(t, err, ErrMissingField)
		require.NotNil(t, kpi)
	}
	require.Zero(t, runner.calls)
}

func TestConverseEmitsFencedSQL(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{sqlEvent("SELECT 1")}}
	o := NewOrchestrator(runner, discardLogs())

	messages, kpi, err := o.Converse(context.Background(), "u1", "s1", "how many rows?")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, Message{Role: RoleModel, Content: "```sql\nSELECT 1\n```"}, messages[0])
	require.Equal(t, "SELECT 1", kpi.Get(KPIGeneratedSQL))
	require.Equal(t, "1", kpi.Get(KPIRoundTrips))
	require.Equal(t, "false", kpi.Get(KPIClarificationAsked))
}

func TestConverseSQLWinsOverTextWithinTurn(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{agent.ModelEvent{Parts: []agent.Part{
		{Text: "Let me check."},
		{Call: &agent.ToolCall{Name: "submit_query", Args: map[string]any{"sql_query": "SELECT 2"}}},
	}}}}
	o := NewOrchestrator(runner, discardLogs())

	messages, _, err := o.Converse(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "```sql\nSELECT 2\n```", messages[0].Content)
}

func TestConverseClarificationFlag(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{textEvent("Which region do you mean?")}}
	o := NewOrchestrator(runner, discardLogs())

	messages, kpi, err := o.Converse(context.Background(), "u1", "s1", "sales?")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, RoleModel, messages[0].Role)
	require.Equal(t, "Which region do you mean?", messages[0].Content)
	require.Equal(t, "true", kpi.Get(KPIClarificationAsked))
	require.Equal(t, "N/A", kpi.Get(KPIGeneratedSQL))
}

func TestConverseStopsAtFirstErrorEvent(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{
		agent.ErrorEvent{Code: "E1", Message: "backend exploded"},
		textEvent("should never be read"),
		sqlEvent("SELECT 3"),
	}}
	o := NewOrchestrator(runner, discardLogs())

	messages, kpi, err := o.Converse(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, RoleAssistant, messages[0].Role)
	require.Contains(t, messages[0].Content, "technical issue")
	require.Contains(t, messages[0].Content, "E1")
	require.NotContains(t, messages[0].Content, "backend exploded")
	require.Equal(t, "E1", kpi.Get(KPIAgentError))
	// Fail fast: the trailing events were never drained.
	require.Len(t, runner.channel, 2)
}

func TestConverseRunFailureIsInternal(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("session not found")}
	o := NewOrchestrator(runner, discardLogs())

	messages, kpi, err := o.Converse(context.Background(), "u1", "s1", "q")
	require.ErrorIs(t, err, ErrInternal)
	require.Nil(t, messages)
	require.Equal(t, "agent run failed", kpi.Get(KPIServerError))
}

func TestConverseSkipsEmptyTurns(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{
		agent.ModelEvent{},
		textEvent("done"),
	}}
	o := NewOrchestrator(runner, discardLogs())

	messages, kpi, err := o.Converse(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "2", kpi.Get(KPIRoundTrips))
}

func TestProbeFindsSQL(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{
		textEvent("Looking it up."),
		sqlEvent("SELECT count(*) FROM t"),
		textEvent("trailing"),
	}}
	o := NewOrchestrator(runner, discardLogs())

	res, err := o.Probe(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.Equal(t, "SELECT count(*) FROM t", res.GeneratedSQL)
	require.Nil(t, res.AgentError)
	require.Empty(t, res.Clarification)
}

func TestProbeReportsClarification(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{textEvent("Which year?")}}
	o := NewOrchestrator(runner, discardLogs())

	res, err := o.Probe(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.Empty(t, res.GeneratedSQL)
	require.Equal(t, "Which year?", res.Clarification)
}

func TestProbeSurfacesAgentError(t *testing.T) {
	runner := &fakeRunner{events: []agent.Event{
		agent.ErrorEvent{Code: "E7", Message: "quota"},
		sqlEvent("SELECT 1"),
	}}
	o := NewOrchestrator(runner, discardLogs())

	res, err := o.Probe(context.Background(), "u1", "s1", "q")
	require.NoError(t, err)
	require.NotNil(t, res.AgentError)
	require.Equal(t, "E7", res.AgentError.Code)
	require.Empty(t, res.GeneratedSQL)
}
