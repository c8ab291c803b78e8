package core

import (
	"fmt"
	"strings"
)

// titleRuneLimit is how much of the first user message survives into
// the thread title before an ellipsis is appended.
const titleRuneLimit = 30

// DeriveThreadTitle builds a thread title from the first user message.
// Newlines collapse to spaces and anything past 30 characters is cut,
// counting runes so multibyte input is never split.
func DeriveThreadTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) <= titleRuneLimit {
		return title
	}
	return string(runes[:titleRuneLimit]) + "..."
}

// PlaceholderTitle names a thread that has no user message yet.
func PlaceholderTitle(n int) string {
	return fmt.Sprintf("Chat %d", n)
}
