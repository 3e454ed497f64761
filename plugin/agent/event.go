package agent

// Event is one item in the response stream the runtime yields for a single
// user message. It is a closed union: ErrorEvent or ModelEvent. Consumers
// type-switch over the two variants.
type Event interface {
	isEvent()
}

// ErrorEvent terminates a stream: the runtime hit an error and will yield
// nothing further.
type ErrorEvent struct {
	Code    string
	Message string
}

func (ErrorEvent) isEvent() {}

// ModelEvent carries one model-originated content item. A single event may
// hold both text fragments and a tool call.
type ModelEvent struct {
	Parts []Part
}

func (ModelEvent) isEvent() {}

// Part is one fragment of a ModelEvent: either text or a tool call, never both.
type Part struct {
	Text string
	Call *ToolCall
}

// ToolCall is a function invocation requested by the model. The SQL-submitting
// tool carries the generated query under the "sql_query" argument.
type ToolCall struct {
	Name string
	Args map[string]any
}

// SQLQueryArg is the tool-call argument key holding generated SQL.
const SQLQueryArg = "sql_query"

// SQL extracts the generated SQL string from a tool call, or "" if absent.
func (t *ToolCall) SQL() string {
	if t == nil {
		return ""
	}
	if v, ok := t.Args[SQLQueryArg].(string); ok {
		return v
	}
	return ""
}
