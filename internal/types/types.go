package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ThreadStatus is the backend-reported lifecycle state of a thread.
// The set is open: unknown statuses are carried verbatim and treated
// like StatusActive everywhere except routing and handoff rendering.
type ThreadStatus string

const (
	StatusActive               ThreadStatus = "active"
	StatusInProgress           ThreadStatus = "in_progress"
	StatusAwaitingInput        ThreadStatus = "awaiting_input"
	StatusAwaitingConfirmation ThreadStatus = "awaiting_confirmation"
	StatusCompleted            ThreadStatus = "completed"
	StatusHandoff              ThreadStatus = "handoff"
)

// Principal represents the authenticated user.
type Principal struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Token    string `json:"token"`
}

// Message represents one turn in a thread. Messages are append-only;
// a message is never edited after it lands.
type Message struct {
	Role     Role            `json:"role"`
	Content  string          `json:"content"`
	TS       int64           `json:"ts"`
	Pipeline *PipelineResult `json:"pipeline,omitempty"`
}

// Thread represents one conversation with the backend.
type Thread struct {
	ConversationID string       `json:"conversation_id"`
	Title          string       `json:"title"`
	Messages       []Message    `json:"messages"`
	Status         ThreadStatus `json:"status"`
	CreatedAt      int64        `json:"created_at"`
}

// Snapshot is the unit of local persistence: every thread plus the
// active selection, written as one value after each mutation.
type Snapshot struct {
	Threads []Thread `json:"threads"`
	Active  int      `json:"active"`
}

// HistoryRecord is one row of the flat server-side transcript.
type HistoryRecord struct {
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
}

// PipelineResult is the structured payload returned by both send
// operations. Every field except ConversationID is optional; absent
// fields stay zero-valued.
type PipelineResult struct {
	ConversationID   string        `json:"conversation_id,omitempty"`
	Reply            string        `json:"reply,omitempty"`
	Status           ThreadStatus  `json:"status,omitempty"`
	Intent           string        `json:"intent,omitempty"`
	Urgency          string        `json:"urgency,omitempty"`
	OrderID          string        `json:"order_id,omitempty"`
	OrderDetails     *OrderDetails `json:"order_details,omitempty"`
	AgentsCalled     []string      `json:"agents_called,omitempty"`
	ReturnLabelURL   string        `json:"return_label_url,omitempty"`
	Buttons          []Button      `json:"buttons,omitempty"`
	Resolution       *Resolution   `json:"resolution_output,omitempty"`
	TriageConfidence *float64      `json:"triage_confidence,omitempty"`
}

// OrderDetails is the order snapshot the backend attaches when a
// conversation resolves to a known order.
type OrderDetails struct {
	OrderID       string  `json:"order_id,omitempty"`
	Product       string  `json:"product,omitempty"`
	Size          string  `json:"size,omitempty"`
	OrderDate     string  `json:"order_date,omitempty"`
	DeliveredDate string  `json:"delivered_date,omitempty"`
	Status        string  `json:"status,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
}

// Resolution is the resolution agent's output.
type Resolution struct {
	Action         string  `json:"action,omitempty"`
	Message        string  `json:"message,omitempty"`
	RefundAmount   float64 `json:"refund_amount,omitempty"`
	ReturnLabelURL string  `json:"return_label_url,omitempty"`
}

// Button is a suggested quick reply. The backend has emitted both bare
// strings and {label, value} objects, so both forms decode.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (b *Button) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		b.Label = s
		b.Value = s
		return nil
	}
	type buttonObject struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	var obj buttonObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode button: %w", err)
	}
	b.Label = obj.Label
	b.Value = obj.Value
	if b.Value == "" {
		b.Value = b.Label
	}
	return nil
}

// FallbackReply is shown when a successful response carries no text.
const FallbackReply = "Your request has been processed."

// SendFailureReply is appended when a send round trip fails outright.
const SendFailureReply = "Sorry, something went wrong while contacting support. Please try sending your message again."

// ReplyText resolves the display text for an assistant turn: the
// direct reply when present, then the resolution message, then a
// generic acknowledgement so the user is never shown an empty bubble.
func (p *PipelineResult) ReplyText() string {
	if p == nil {
		return FallbackReply
	}
	if strings.TrimSpace(p.Reply) != "" {
		return p.Reply
	}
	if p.Resolution != nil && strings.TrimSpace(p.Resolution.Message) != "" {
		return p.Resolution.Message
	}
	return FallbackReply
}

// Clone returns a deep copy of the thread. Renders read clones so a
// concurrent mutation never shows through.
func (t Thread) Clone() Thread {
	out := t
	out.Messages = make([]Message, len(t.Messages))
	copy(out.Messages, t.Messages)
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Active: s.Active, Threads: make([]Thread, len(s.Threads))}
	for i, t := range s.Threads {
		out.Threads[i] = t.Clone()
	}
	return out
}
