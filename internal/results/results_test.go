package results

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func session() types.InterviewSession {
	return types.InterviewSession{
		ID:                   "s-1",
		JobCategory:          "software-engineer",
		FormattedJobCategory: "Software Engineer",
		Date:                 time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		Results: []types.AnalysisResult{
			{
				Question:      "Describe a hard bug.",
				Transcription: strPtr("A race in the cache."),
				Feedback:      strPtr("Clear and specific."),
				Score:         intPtr(81),
				GreatResponse: strPtr("In my last role..."),
			},
			{Question: "Why this company?", Score: intPtr(60)},
			{Question: "Unscored question"},
		},
	}
}

func TestBuild(t *testing.T) {
	v := Build(session())

	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, "Software Engineer", v.FormattedJobCategory)
	assert.Equal(t, 71, v.AverageScore, "mean of 81 and 60, unscored ignored")
	require.Len(t, v.Items, 3)

	first := v.Items[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Describe a hard bug.", first.Question)
	assert.Equal(t, "A race in the cache.", *first.Answer)
	assert.Equal(t, 81, *first.Score)
	assert.Equal(t, 3, v.Items[2].Number)
	assert.Nil(t, v.Items[2].Score)
}

func TestBuild_DoesNotAliasSession(t *testing.T) {
	s := session()
	v := Build(s)
	*v.Items[0].Score = 0
	assert.Equal(t, 81, *s.Results[0].Score)
}

func TestBuild_FormatsMissingCategoryName(t *testing.T) {
	v := Build(types.InterviewSession{JobCategory: "ux-ui-designer"})
	assert.Equal(t, "Ux Ui Designer", v.FormattedJobCategory)
	assert.Equal(t, 0, v.AverageScore)
	assert.NotNil(t, v.Items)
}

func TestHistory_NewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := []types.InterviewSession{
		{ID: "old", JobCategory: "data-scientist", Date: base},
		{ID: "new", JobCategory: "data-scientist", Date: base.Add(48 * time.Hour)},
		{ID: "mid", JobCategory: "data-scientist", Date: base.Add(24 * time.Hour)},
	}

	views := History(sessions)
	require.Len(t, views, 3)
	assert.Equal(t, "new", views[0].SessionID)
	assert.Equal(t, "mid", views[1].SessionID)
	assert.Equal(t, "old", views[2].SessionID)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Build(session()))
	out := buf.String()

	assert.Contains(t, out, "INTERVIEW RESULTS · Software Engineer")
	assert.Contains(t, out, "Average score: 71/100")
	assert.Contains(t, out, "QUESTION 1")
	assert.Contains(t, out, "Your score: 81/100")
	assert.Contains(t, out, "Example of a great response:")
	assert.Contains(t, out, "QUESTION 3")
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	RenderHistory(&buf, nil)
	assert.Contains(t, buf.String(), "No past interviews yet.")

	buf.Reset()
	RenderHistory(&buf, History([]types.InterviewSession{session()}))
	assert.Contains(t, buf.String(), "INTERVIEW HISTORY (1)")
	assert.Contains(t, buf.String(), "Software Engineer")
	assert.Contains(t, buf.String(), "71/100")
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat("░", 20)+"]", scoreBar(0))
	assert.Equal(t, "["+strings.Repeat("█", 10)+strings.Repeat("░", 10)+"]", scoreBar(50))
	assert.Equal(t, "["+strings.Repeat("█", 20)+"]", scoreBar(150))
}
