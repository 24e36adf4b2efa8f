// Package results builds read-only views of finished interviews for display.
package results

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/types"
)

const scoreBarWidth = 20

// Item is one answered question as shown to the user.
type Item struct {
	Number        int     `json:"number"`
	Question      string  `json:"question"`
	Score         *int    `json:"score"`
	Answer        *string `json:"answer"`
	Feedback      *string `json:"feedback"`
	GreatResponse *string `json:"greatResponse"`
}

// View is a session prepared for display.
type View struct {
	SessionID            string    `json:"id,omitempty"`
	JobCategory          string    `json:"jobCategory"`
	FormattedJobCategory string    `json:"formattedJobCategory"`
	Date                 time.Time `json:"date"`
	AverageScore         int       `json:"averageScore"`
	Items                []Item    `json:"items"`
}

// Build projects a session into a View. The session is not modified.
func Build(s types.InterviewSession) View {
	formatted := s.FormattedJobCategory
	if formatted == "" {
		formatted = types.FormatJobCategory(s.JobCategory)
	}

	v := View{
		SessionID:            s.ID,
		JobCategory:          s.JobCategory,
		FormattedJobCategory: formatted,
		Date:                 s.Date,
		AverageScore:         types.AverageScore(s.Results),
		Items:                make([]Item, 0, len(s.Results)),
	}
	for i, r := range types.CloneResults(s.Results) {
		v.Items = append(v.Items, Item{
			Number:        i + 1,
			Question:      r.Question,
			Score:         r.Score,
			Answer:        r.Transcription,
			Feedback:      r.Feedback,
			GreatResponse: r.GreatResponse,
		})
	}
	return v
}

// History builds views for sessions, newest first.
func History(sessions []types.InterviewSession) []View {
	views := make([]View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, Build(s))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Date.After(views[j].Date)
	})
	return views
}

// Render writes a boxed text report of v.
func Render(w io.Writer, v View) {
	p := observability.NewPrinter(w)

	header := fmt.Sprintf("Average score: %d/100\n%s", v.AverageScore, scoreBar(v.AverageScore))
	if !v.Date.IsZero() {
		header += "\n" + v.Date.Local().Format("Jan 2, 2006 3:04 PM")
	}
	p.Box("INTERVIEW RESULTS · "+v.FormattedJobCategory, header)

	for _, item := range v.Items {
		p.Box(fmt.Sprintf("QUESTION %d", item.Number), itemBody(item))
	}
}

// RenderHistory writes a one-box summary of past sessions.
func RenderHistory(w io.Writer, views []View) {
	p := observability.NewPrinter(w)
	if len(views) == 0 {
		p.Box("INTERVIEW HISTORY", "No past interviews yet.")
		return
	}

	var sb strings.Builder
	for i, v := range views {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s  %-24s %3d/100  (%d questions)",
			v.Date.Local().Format("2006-01-02 15:04"), v.FormattedJobCategory, v.AverageScore, len(v.Items))
	}
	p.Box(fmt.Sprintf("INTERVIEW HISTORY (%d)", len(views)), sb.String())
}

func itemBody(item Item) string {
	var sb strings.Builder
	sb.WriteString(item.Question)
	sb.WriteString("\n")
	if item.Score != nil {
		fmt.Fprintf(&sb, "\nYour score: %d/100\n%s\n", *item.Score, scoreBar(*item.Score))
	}
	section(&sb, "Your answer", item.Answer)
	section(&sb, "Feedback", item.Feedback)
	section(&sb, "Example of a great response", item.GreatResponse)
	return strings.TrimRight(sb.String(), "\n")
}

func section(sb *strings.Builder, title string, text *string) {
	if text == nil {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n%s\n", title, *text)
}

func scoreBar(score int) string {
	score = max(0, min(100, score))
	filled := score * scoreBarWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", scoreBarWidth-filled) + "]"
}
