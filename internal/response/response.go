// Package response maps run outcomes onto the JSON shapes callers receive.
package response

import (
	"encoding/json"
	"fmt"

	"oddsy/internal/agent"
	"oddsy/internal/tools/decision"
)

// Response types.
const (
	TypeFinal     = "final"
	TypeAnswer    = "answer"
	TypeExhausted = "exhausted"
	TypeError     = "error"
)

// Response is one of four shapes selected by Type:
//
//	{"type":"final","data":{"game":{...},"pick":{...},"narrative":"..."}}
//	{"type":"answer","content":"...","steps":["..."]}
//	{"type":"exhausted","content":"..."}
//	{"type":"error","error":"..."}
type Response struct {
	Type    string
	Data    *decision.Recommendation
	Content string
	Steps   []string
	Error   string
}

// Format converts an outcome. The final payload is passed through without
// modification so consumers can cross-check the pick against the game.
func Format(outcome agent.Outcome) Response {
	switch o := outcome.(type) {
	case agent.FinalDecision:
		rec := o.Payload
		return Response{Type: TypeFinal, Data: &rec}
	case agent.PlainAnswer:
		steps := o.Steps
		if steps == nil {
			steps = []string{}
		}
		return Response{Type: TypeAnswer, Content: o.Text, Steps: steps}
	case agent.BudgetExhausted:
		return Response{Type: TypeExhausted, Content: o.Message}
	default:
		return Failure(fmt.Errorf("unknown outcome %T", outcome))
	}
}

// Failure is the explicit run-failure signal.
func Failure(err error) Response {
	return Response{Type: TypeError, Error: err.Error()}
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case TypeFinal:
		return json.Marshal(struct {
			Type string                   `json:"type"`
			Data *decision.Recommendation `json:"data"`
		}{r.Type, r.Data})
	case TypeAnswer:
		steps := r.Steps
		if steps == nil {
			steps = []string{}
		}
		return json.Marshal(struct {
			Type    string   `json:"type"`
			Content string   `json:"content"`
			Steps   []string `json:"steps"`
		}{r.Type, r.Content, steps})
	case TypeExhausted:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}{r.Type, r.Content})
	case TypeError:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}{r.Type, r.Error})
	default:
		return nil, fmt.Errorf("response: unknown type %q", r.Type)
	}
}

// UnmarshalJSON accepts any of the shapes produced by MarshalJSON.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string                   `json:"type"`
		Data    *decision.Recommendation `json:"data"`
		Content string                   `json:"content"`
		Steps   []string                 `json:"steps"`
		Error   string                   `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Response{Type: raw.Type, Data: raw.Data, Content: raw.Content, Steps: raw.Steps, Error: raw.Error}
	return nil
}
