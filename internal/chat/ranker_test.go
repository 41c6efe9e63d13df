package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/models"
	"workflow-chat/internal/parser"
)

func parseForRanking(t *testing.T, text string) *parser.ParsedCommand {
	t.Helper()
	p := parser.New(parser.DefaultOptions(), nil)
	return p.ParseSync(text, nil)
}

func TestRankWorkflowsPrefersExactTitleMatch(t *testing.T) {
	cmd := parseForRanking(t, `run workflow "Email Campaign"`)
	candidates := []models.WorkflowSummary{
		{ID: "wf-002", Title: "Daily Digest", UsageCount: 900, Rating: 5},
		{ID: "wf-001", Title: "Email Campaign", UsageCount: 10, Rating: 3},
	}

	ranked := rankWorkflows(cmd, candidates, 5, nil)

	require.Len(t, ranked, 2)
	assert.Equal(t, "wf-001", ranked[0].ID, "a title the user named outranks popularity")
}

func TestRankWorkflowsDeduplicatesByID(t *testing.T) {
	cmd := parseForRanking(t, "run the backup")
	candidates := []models.WorkflowSummary{
		{ID: "wf-001", Title: "Backup", UsageCount: 5},
		{ID: "wf-001", Title: "Backup", UsageCount: 5},
		{ID: "wf-002", Title: "Restore", UsageCount: 3},
	}

	ranked := rankWorkflows(cmd, candidates, 5, nil)

	assert.Len(t, ranked, 2)
}

func TestRankWorkflowsCapsResults(t *testing.T) {
	cmd := parseForRanking(t, "run the backup")
	var candidates []models.WorkflowSummary
	for i := 0; i < 10; i++ {
		candidates = append(candidates, models.WorkflowSummary{
			ID:    string(rune('a' + i)),
			Title: "Backup",
		})
	}

	ranked := rankWorkflows(cmd, candidates, 3, nil)

	assert.Len(t, ranked, 3)
}

func TestRankWorkflowsUsageBreaksTies(t *testing.T) {
	cmd := parseForRanking(t, "run the backup")
	candidates := []models.WorkflowSummary{
		{ID: "wf-001", Title: "Backup", UsageCount: 1},
		{ID: "wf-002", Title: "Backup", UsageCount: 100},
	}

	ranked := rankWorkflows(cmd, candidates, 5, nil)

	require.Len(t, ranked, 2)
	assert.Equal(t, "wf-002", ranked[0].ID)
}

func TestRankWorkflowsCategoryMentionCounts(t *testing.T) {
	cmd := parseForRanking(t, "run the marketing workflow")
	candidates := []models.WorkflowSummary{
		{ID: "wf-001", Title: "Blast", Category: "engineering"},
		{ID: "wf-002", Title: "Blast", Category: "marketing"},
	}

	ranked := rankWorkflows(cmd, candidates, 5, nil)

	require.Len(t, ranked, 2)
	assert.Equal(t, "wf-002", ranked[0].ID)
}

func TestRankWorkflowsEmptyInput(t *testing.T) {
	cmd := parseForRanking(t, "run the backup")
	assert.Nil(t, rankWorkflows(cmd, nil, 5, nil))
}

func BenchmarkRankWorkflows(b *testing.B) {
	p := parser.New(parser.DefaultOptions(), nil)
	cmd := p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, nil)
	var candidates []models.WorkflowSummary
	for i := 0; i < 50; i++ {
		candidates = append(candidates, models.WorkflowSummary{
			ID:         fmt.Sprintf("wf-%03d", i),
			Title:      fmt.Sprintf("Workflow %d", i),
			UsageCount: i,
			Rating:     float64(i%5) + 1,
		})
	}
	candidates[7].Title = "Email Campaign"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rankWorkflows(cmd, candidates, 5, nil)
	}
}
