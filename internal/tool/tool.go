package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Handler executes a tool against arguments that already passed schema
// validation.
type Handler func(ctx context.Context, args map[string]any) Result

// ToolSpec describes a tool the model may call. Tools are plain data: a name,
// a description, a JSON schema for the arguments and an executor closure.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Execute     Handler

	resolved *jsonschema.Resolved
}

// compile resolves the argument schema. A nil schema accepts an empty object.
func (s *ToolSpec) compile() error {
	if s.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if s.Execute == nil {
		return fmt.Errorf("tool %s has no executor", s.Name)
	}
	if s.Schema == nil {
		s.Schema = &jsonschema.Schema{Type: "object"}
	}
	resolved, err := s.Schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", s.Name, err)
	}
	s.resolved = resolved
	return nil
}

// Call parses the raw argument string, validates it against the schema and,
// only if both succeed, runs the executor. It never panics.
func (s *ToolSpec) Call(ctx context.Context, raw string) (result Result) {
	args, err := s.ParseArgs(raw)
	if err != nil {
		return FromError(err)
	}

	defer func() {
		if r := recover(); r != nil {
			result = Failf("tool %s failed: %v", s.Name, r)
		}
	}()

	return s.Execute(ctx, args)
}

// ParseArgs decodes and validates the model-supplied argument string.
func (s *ToolSpec) ParseArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
	}
	args, ok := v.(map[string]any)
	if !ok {
		return nil, &ClientError{Reason: "arguments must be a JSON object", Err: ErrValidation}
	}

	if s.resolved == nil {
		if err := s.compile(); err != nil {
			return nil, err
		}
	}
	if err := s.resolved.Validate(args); err != nil {
		return nil, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// Result is the uniform outcome of a tool execution.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps data in a successful Result.
func Success(data any) Result {
	return Result{OK: true, Data: data}
}

// Failf builds an error Result.
func Failf(format string, args ...any) Result {
	return Result{OK: false, Error: fmt.Sprintf(format, args...)}
}

// FromError converts err into an error Result.
func FromError(err error) Result {
	return Result{OK: false, Error: err.Error()}
}

// String serializes the result as it is handed back to the model.
func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":%q}`, "unserializable result: "+err.Error())
	}
	return string(data)
}

type CallResult struct {
	ToolName  string
	CallID    string
	Params    json.RawMessage
	Result    Result
	StartTime time.Time
	EndTime   time.Time
}

// Duration is the wall time spent on the call.
func (c *CallResult) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// Succeeded reports whether the result is the success variant.
func (r Result) Succeeded() bool {
	return r.OK
}
