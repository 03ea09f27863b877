// Package cliui provides reusable terminal UI helpers (styles, duration
// formatting) for relay CLI commands.
package cliui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	// DimStyle renders secondary information (hints, counts, byline text).
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// KeyStyle renders the label side of key/value output.
	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	// ValueStyle renders the value side of key/value output.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	// NameStyle renders model and tool names.
	NameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	// UserPrompt and AssistantPrompt prefix the two sides of a chat exchange.
	UserPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	AssistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatUsage renders token usage totals as a dim one-line summary.
func FormatUsage(prompt, completion, total int) string {
	return DimStyle.Render(fmt.Sprintf("(%d prompt + %d completion = %d tokens)", prompt, completion, total))
}
