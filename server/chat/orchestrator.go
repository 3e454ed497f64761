// Package chat turns one inbound user message into an ordered sequence of
// outbound message parts by driving the agent runtime's event stream. This is
// the only request-scoped orchestration logic in the server; everything it
// coordinates (session persistence, SQL generation) lives behind interfaces.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/agenticdata/datachat/plugin/agent"
	"github.com/agenticdata/datachat/server/logger"
)

// Message roles as rendered by the frontend.
const (
	RoleModel     = "model"
	RoleAssistant = "assistant"
)

// ErrMissingField marks a request rejected before the runtime was invoked.
var ErrMissingField = errors.New("user_id, session_id, and message are required")

// ErrInternal is returned to callers when processing fails for any reason
// other than bad input; the underlying cause is confined to the restricted
// log and never reaches the client.
var ErrInternal = errors.New("internal server error")

// Message is one chat bubble: who said it and what to render.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Orchestrator consumes one agent run per user message and assembles the
// reply sequence. Safe for concurrent use; all per-request state is local.
type Orchestrator struct {
	runner agent.Runner
	logs   *logger.Pair
}

// NewOrchestrator wires an Orchestrator to its runner and log sinks.
func NewOrchestrator(runner agent.Runner, logs *logger.Pair) *Orchestrator {
	return &Orchestrator{runner: runner, logs: logs}
}

// Converse processes one chat turn. All three identifiers are mandatory;
// a missing one returns ErrMissingField without touching the runtime. The
// returned KPIRecord is always non-nil and already logged.
func (o *Orchestrator) Converse(ctx context.Context, userID, sessionID, text string) ([]Message, *KPIRecord, error) {
	kpi := NewKPIRecord()

	if userID == "" || sessionID == "" || text == "" {
		o.logs.Operational.Warn("chat request rejected: missing user_id, session_id, or message")
		return nil, kpi, ErrMissingField
	}

	o.logs.Operational.Info("[CHAT_START]",
		"user", logger.Sanitize(userID),
		"session", logger.Sanitize(sessionID),
		"message", logger.Sanitize(text),
	)
	kpi.Set(KPIUserID, logger.Sanitize(userID))
	kpi.Set(KPISessionID, logger.Sanitize(sessionID))
	kpi.Set(KPIQuestion, logger.Sanitize(text))
	kpi.Set(KPIRoundTrips, "0")

	events, err := o.runner.Run(ctx, userID, sessionID, text)
	if err != nil {
		kpi.Set(KPIServerError, "agent run failed")
		kpi.Log(o.logs.Operational)
		o.logs.Operational.Error("error during chat processing", "user", logger.Sanitize(userID))
		o.logs.Restricted.Error("agent run failed", "user", userID, "session", sessionID, "err", err)
		return nil, kpi, ErrInternal
	}

	reply, roundTrips, transcript := o.consume(events, kpi)
	kpi.Set(KPIRoundTrips, strconv.Itoa(roundTrips))

	// Clarification means the whole exchange produced prose but no SQL.
	clarified := kpi.Get(KPIGeneratedSQL) == "N/A" && transcript != ""
	kpi.Set(KPIClarificationAsked, strconv.FormatBool(clarified))

	kpi.Log(o.logs.Operational)
	o.logs.Operational.Info("[CHAT_END]",
		"user", logger.Sanitize(userID),
		"messages", fmt.Sprintf("%v", reply),
	)
	return reply, kpi, nil
}

// consume drains the event stream in arrival order, stopping at the first
// error event. Returns the assembled messages, the model round-trip count,
// and the concatenated assistant text of the whole exchange.
func (o *Orchestrator) consume(events <-chan agent.Event, kpi *KPIRecord) ([]Message, int, string) {
	var (
		reply      []Message
		roundTrips int
		transcript strings.Builder
	)
	for ev := range events {
		switch e := ev.(type) {
		case agent.ErrorEvent:
			reply = append(reply, Message{
				Role:    RoleAssistant,
				Content: apology(e.Code),
			})
			kpi.Set(KPIAgentError, e.Code)
			// Fail fast: remaining events stay unconsumed.
			return reply, roundTrips, transcript.String()
		case agent.ModelEvent:
			roundTrips++
			var turnText, turnSQL string
			for _, part := range e.Parts {
				if part.Text != "" {
					turnText += part.Text
				}
				if sql := part.Call.SQL(); sql != "" {
					turnSQL = sql
				}
			}
			transcript.WriteString(turnText)

			switch {
			case turnSQL != "":
				kpi.Set(KPIGeneratedSQL, turnSQL)
				reply = append(reply, Message{Role: RoleModel, Content: fenceSQL(turnSQL)})
			case turnText != "":
				reply = append(reply, Message{Role: RoleModel, Content: turnText})
			}
			// A turn with neither text nor SQL emits nothing.
		}
	}
	return reply, roundTrips, transcript.String()
}

func apology(code string) string {
	return fmt.Sprintf("I'm sorry, I encountered a technical issue while processing your request. (error code: %s)", code)
}

// fenceSQL wraps generated SQL in a fenced code block for the frontend's
// markdown renderer.
func fenceSQL(sql string) string {
	return "```sql\n" + sql + "\n```"
}
