package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kwangun/internal/transcribe"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Faint(true)
	resultStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// renderTrace formats a derivation trace for the terminal.
func renderTrace(char string, t transcribe.Trace) string {
	var b strings.Builder

	title := t.Record.String()
	if char != "" {
		title = char + " " + title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("onset", quoted(t.Onset))
	base := fmt.Sprintf("%s (%s)", quoted(t.BaseBody), t.Source)
	if t.Rule != "" {
		base = fmt.Sprintf("%s (%s: %s)", quoted(t.BaseBody), t.Source, t.Rule)
	}
	line("rhyme", base)

	for _, s := range t.Steps {
		switch {
		case s.Changed():
			note := ""
			if s.Note != "" {
				note = " [" + s.Note + "]"
			}
			line(s.Name, changedStyle.Render(fmt.Sprintf("%s -> %s%s", quoted(s.Before), quoted(s.After), note)))
		case s.Applied:
			line(s.Name, fmt.Sprintf("%s unchanged", quoted(s.After)))
		default:
			line(s.Name, skippedStyle.Render("skipped"))
		}
	}

	line("tone", quoted(t.Tone))
	b.WriteString(labelStyle.Render("result"))
	b.WriteString(resultStyle.Render(t.Result))

	return boxStyle.Render(b.String())
}

func quoted(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
