// Package agent binds the server to the hosted agent runtime. The runtime
// takes a conversation turn for a session and produces an ordered stream of
// response events (text and/or tool calls); it is not reimplemented here.
package agent

import "context"

// Runner submits one user message to the runtime bound to a session and
// returns the resulting event stream. The channel is single-consumer: events
// arrive in order and the channel is closed when the run finishes. A consumer
// that stops reading after an ErrorEvent leaves the remainder unconsumed.
type Runner interface {
	AppName() string
	Run(ctx context.Context, userID, sessionID, message string) (<-chan Event, error)
}
