// Package observability provides structured logging and formatted console output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/hired/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxFeedbackLines caps how much model feedback is shown in verbose output
	maxFeedbackLines = 8
)

// Printer handles formatted output for the console practice mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Box prints a formatted box with a title and content. Long lines are wrapped.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Box(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintQuestion shows the question currently being asked.
func (p *Printer) PrintQuestion(index, total int, question string) {
	p.Box(fmt.Sprintf("QUESTION %d OF %d", index+1, total), question)
}

// PrintFeedback outputs the analysis of one answered question.
func (p *Printer) PrintFeedback(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	if result.Score != nil {
		sb.WriteString(fmt.Sprintf("Score: %d/100\n\n", *result.Score))
	}
	if result.Transcription != nil {
		sb.WriteString("Your answer:\n")
		sb.WriteString(*result.Transcription)
		sb.WriteString("\n\n")
	}
	if result.Feedback != nil {
		sb.WriteString("Feedback:\n")
		lines := wrap(*result.Feedback, boxWidth-4)
		if len(lines) > maxFeedbackLines {
			lines = append(lines[:maxFeedbackLines], "...")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	p.Box("FEEDBACK", strings.TrimRight(sb.String(), "\n"))
}

// PrintNotice outputs a user-facing error message.
func (p *Printer) PrintNotice(kind, message string) {
	p.Box("⚠ "+strings.ToUpper(kind), message)
}

// wrap splits s on word boundaries so each line fits within width runes.
// Words longer than width are hard-split.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur []rune
	for _, w := range words {
		word := []rune(w)
		for len(word) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(word[:width]))
			word = word[width:]
		}
		switch {
		case len(cur) == 0:
			cur = word
		case len(cur)+1+len(word) <= width:
			cur = append(append(cur, ' '), word...)
		default:
			lines = append(lines, string(cur))
			cur = word
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
