package chat

import (
	"strings"
	"testing"

	"github.com/desklinehq/deskline/internal/types"
)

func TestPipelineCaption(t *testing.T) {
	confidence := 0.95
	tests := []struct {
		name   string
		result types.PipelineResult
		want   string
	}{
		{
			name: "full triage",
			result: types.PipelineResult{
				Intent:           "refund",
				Urgency:          "high",
				OrderID:          "11111",
				TriageConfidence: &confidence,
				AgentsCalled:     []string{"triage", "order"},
			},
			want: "Intent: refund | Urgency: high | Order ID: 11111 | Confidence: 0.95 | Agents: triage, order",
		},
		{
			name:   "intent only",
			result: types.PipelineResult{Intent: "cancel"},
			want:   "Intent: cancel",
		},
		{
			name:   "empty",
			result: types.PipelineResult{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pipelineCaption(&tt.result)
			if got != tt.want {
				t.Fatalf("caption: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**bold** text", "bold text"},
		{"__also__ bold", "also bold"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripMarkdown(tt.in); got != tt.want {
			t.Fatalf("stripMarkdown(%q): got %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{100, "₹100"},
		{99.5, "₹99.5"},
		{1250.75, "₹1250.75"},
		{0.5, "₹0.5"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.amount); got != tt.want {
			t.Fatalf("formatAmount(%v): got %q want %q", tt.amount, got, tt.want)
		}
	}
}

func TestButtonsHint(t *testing.T) {
	buttons := []types.Button{
		{Label: "Yes, cancel it", Value: "Yes, cancel it"},
		{Label: "No", Value: "No"},
	}
	got := buttonsHint(buttons)
	want := "[1] Yes, cancel it  [2] No"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if buttonsHint(nil) != "" {
		t.Fatalf("expected empty hint for no buttons")
	}
}

func TestReturnLabelURLPrefersTopLevel(t *testing.T) {
	result := &types.PipelineResult{
		ReturnLabelURL: "http://labels/top.pdf",
		Resolution:     &types.Resolution{ReturnLabelURL: "http://labels/nested.pdf"},
	}
	if got := returnLabelURL(result); got != "http://labels/top.pdf" {
		t.Fatalf("got %q", got)
	}

	result.ReturnLabelURL = ""
	if got := returnLabelURL(result); got != "http://labels/nested.pdf" {
		t.Fatalf("got %q", got)
	}

	if returnLabelURL(nil) != "" {
		t.Fatalf("expected empty for nil result")
	}
}

func TestLatestReturnLabelURL(t *testing.T) {
	thread := types.Thread{Messages: []types.Message{
		{Role: types.RoleAssistant, Pipeline: &types.PipelineResult{ReturnLabelURL: "http://labels/old.pdf"}},
		{Role: types.RoleUser, Content: "thanks"},
		{Role: types.RoleAssistant, Pipeline: &types.PipelineResult{ReturnLabelURL: "http://labels/new.pdf"}},
	}}
	if got := latestReturnLabelURL(thread); got != "http://labels/new.pdf" {
		t.Fatalf("got %q", got)
	}

	if latestReturnLabelURL(types.Thread{}) != "" {
		t.Fatalf("expected empty for thread without labels")
	}
}

func TestRenderMessageIncludesExtras(t *testing.T) {
	msg := types.Message{
		Role:    types.RoleAssistant,
		Content: "Your **refund** is on the way.",
		TS:      1700000000000,
		Pipeline: &types.PipelineResult{
			Intent:       "refund",
			OrderID:      "11111",
			Resolution:   &types.Resolution{RefundAmount: 100},
			Buttons:      []types.Button{{Label: "Done", Value: "Done"}},
			OrderDetails: &types.OrderDetails{Product: "Shoes", OrderID: "11111", Status: "delivered"},
		},
	}
	out := renderMessage(msg, 80)

	for _, want := range []string{
		"Support",
		"Your refund is on the way.",
		"Intent: refund | Order ID: 11111",
		"Refund Amount: ₹100",
		"[1] Done",
		"Shoes",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered message missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Fatalf("markdown markers should be stripped:\n%s", out)
	}
}

func TestRenderMessageUserLabel(t *testing.T) {
	msg := types.Message{Role: types.RoleUser, Content: "hello", TS: 1700000000000}
	out := renderMessage(msg, 80)
	if !strings.Contains(out, "You") {
		t.Fatalf("expected user label, got:\n%s", out)
	}
}

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		value  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"a longer line here", 10, "a longer …"},
		{"abc", 0, "abc"},
		{"abc", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncateLine(tt.value, tt.maxLen); got != tt.want {
			t.Fatalf("truncateLine(%q, %d): got %q want %q", tt.value, tt.maxLen, got, tt.want)
		}
	}
}

func TestTruncateNotification(t *testing.T) {
	got := truncateNotification("  lots   of\nwhitespace  ", 100)
	if got != "lots of whitespace" {
		t.Fatalf("got %q", got)
	}

	long := strings.Repeat("x", 120)
	got = truncateNotification(long, 100)
	if len(got) > 100+len("…") {
		t.Fatalf("notification too long: %d", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}
