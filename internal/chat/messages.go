package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desklinehq/deskline/internal/types"
)

const handoffBannerText = "We're transferring you to a human support agent. Please wait or check your email for updates."

func (m *Model) renderConversation(thread types.Thread) string {
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	var blocks []string
	if len(thread.Messages) == 0 {
		blocks = append(blocks, welcomeStyle.Render("How can we help? Describe your issue to get started."))
	}
	for _, msg := range thread.Messages {
		blocks = append(blocks, renderMessage(msg, width))
	}
	if thread.Status == types.StatusHandoff {
		blocks = append(blocks, handoffBannerStyle.Width(width).Render(handoffBannerText))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func renderMessage(msg types.Message, width int) string {
	label := "Support"
	labelStyle := assistantLabelStyle
	if msg.Role == types.RoleUser {
		label = "You"
		labelStyle = userLabelStyle
	}
	header := labelStyle.Render(label)
	if ts := formatMessageTime(msg.TS); ts != "" {
		header += " " + timeStyle.Render(ts)
	}

	body := lipgloss.NewStyle().Width(width).Render(stripMarkdown(msg.Content))
	parts := []string{header, body}

	if msg.Pipeline != nil {
		parts = append(parts, renderPipelineExtras(msg.Pipeline, width)...)
	}
	return strings.Join(parts, "\n")
}

// renderPipelineExtras renders the structured parts of an agent reply:
// triage caption, order details, refund line, return label, quick replies.
func renderPipelineExtras(result *types.PipelineResult, width int) []string {
	var parts []string
	if caption := pipelineCaption(result); caption != "" {
		parts = append(parts, captionStyle.Render(caption))
	}
	if box := renderOrderDetails(result.OrderDetails, width); box != "" {
		parts = append(parts, box)
	}
	if result.Resolution != nil && result.Resolution.RefundAmount > 0 {
		parts = append(parts, "Refund Amount: "+formatAmount(result.Resolution.RefundAmount))
	}
	if url := returnLabelURL(result); url != "" {
		parts = append(parts, "Return label: "+linkStyle.Render(url)+timeStyle.Render("  (ctrl+y to copy)"))
	}
	if hint := buttonsHint(result.Buttons); hint != "" {
		parts = append(parts, buttonStyle.Render(hint))
	}
	return parts
}

func pipelineCaption(result *types.PipelineResult) string {
	var parts []string
	if result.Intent != "" {
		parts = append(parts, "Intent: "+result.Intent)
	}
	if result.Urgency != "" {
		parts = append(parts, "Urgency: "+result.Urgency)
	}
	if result.OrderID != "" {
		parts = append(parts, "Order ID: "+result.OrderID)
	}
	if result.TriageConfidence != nil {
		parts = append(parts, fmt.Sprintf("Confidence: %.2f", *result.TriageConfidence))
	}
	if len(result.AgentsCalled) > 0 {
		parts = append(parts, "Agents: "+strings.Join(result.AgentsCalled, ", "))
	}
	return strings.Join(parts, " | ")
}

func renderOrderDetails(details *types.OrderDetails, width int) string {
	if details == nil {
		return ""
	}
	var lines []string
	if details.Product != "" {
		name := details.Product
		if details.Size != "" {
			name += " (size " + details.Size + ")"
		}
		lines = append(lines, name)
	}
	if details.OrderID != "" {
		lines = append(lines, "Order "+details.OrderID)
	}
	if details.Status != "" {
		lines = append(lines, "Status: "+details.Status)
	}
	if details.OrderDate != "" {
		lines = append(lines, "Ordered: "+details.OrderDate)
	}
	if details.DeliveredDate != "" {
		lines = append(lines, "Delivered: "+details.DeliveredDate)
	}
	if details.Amount > 0 {
		lines = append(lines, "Amount: "+formatAmount(details.Amount))
	}
	if len(lines) == 0 {
		return ""
	}
	boxWidth := width - 4
	if boxWidth > 44 {
		boxWidth = 44
	}
	return orderBoxStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
}

// buttonsHint renders quick replies as numbered choices, e.g.
// "[1] Yes, cancel it  [2] No". Digits 1-9 insert the matching value.
func buttonsHint(buttons []types.Button) string {
	if len(buttons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(buttons))
	for i, b := range buttons {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, b.Label))
	}
	return strings.Join(parts, "  ")
}

func returnLabelURL(result *types.PipelineResult) string {
	if result == nil {
		return ""
	}
	if result.ReturnLabelURL != "" {
		return result.ReturnLabelURL
	}
	if result.Resolution != nil {
		return result.Resolution.ReturnLabelURL
	}
	return ""
}

// latestReturnLabelURL walks the thread newest-first so ctrl+y copies the
// label from the most recent resolution.
func latestReturnLabelURL(thread types.Thread) string {
	for i := len(thread.Messages) - 1; i >= 0; i-- {
		if url := returnLabelURL(thread.Messages[i].Pipeline); url != "" {
			return url
		}
	}
	return ""
}

// stripMarkdown drops bold and italic markers that agent replies carry
// over from web rendering. Terminal output keeps the plain text.
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return s
}

func formatMessageTime(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.UnixMilli(ts).Format("15:04")
}

// formatAmount renders rupee amounts without trailing zeros: ₹100, ₹99.50.
func formatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return "₹" + s
}
