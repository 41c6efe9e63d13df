package chat

import (
	"sort"
	"strings"
	"time"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
	"workflow-chat/internal/parser"
)

const (
	relevanceWeight  = 0.4
	usageWeight      = 0.3
	ratingWeight     = 0.2
	categoryWeight   = 0.1
	maxRating        = 5.0
	slowRankDuration = 50 * time.Millisecond
)

// identifierValues lists the workflow names and ids the command mentions,
// in extraction order.
func identifierValues(cmd *parser.ParsedCommand) []string {
	values := make([]string, 0, len(cmd.Entities.Workflows))
	for _, id := range cmd.Entities.Workflows {
		values = append(values, id.Value)
	}
	return values
}

// rankWorkflows orders candidates by weighted relevance to the parsed
// command, drops duplicates, and caps the list at max (max <= 0 leaves the
// list uncapped). Ties keep the search engine's order.
func rankWorkflows(cmd *parser.ParsedCommand, candidates []models.WorkflowSummary, max int, log logger.Logger) []models.WorkflowSummary {
	if len(candidates) == 0 {
		return nil
	}
	start := time.Now()

	maxUsage := 0
	for _, c := range candidates {
		if c.UsageCount > maxUsage {
			maxUsage = c.UsageCount
		}
	}

	wanted := identifierValues(cmd)
	queryTokens := tokenSet(cmd.NormalizedText)
	for _, w := range wanted {
		for tok := range tokenSet(strings.ToLower(w)) {
			queryTokens[tok] = struct{}{}
		}
	}

	type scoredWorkflow struct {
		workflow models.WorkflowSummary
		score    float64
	}

	seen := make(map[string]bool, len(candidates))
	ranked := make([]scoredWorkflow, 0, len(candidates))
	for _, wf := range candidates {
		key := wf.ID
		if key == "" {
			key = strings.ToLower(wf.Title)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		score := relevanceWeight*textRelevance(wf, wanted, queryTokens) +
			usageWeight*usageScore(wf.UsageCount, maxUsage) +
			ratingWeight*ratingScore(wf.Rating) +
			categoryWeight*categoryFit(wf.Category, cmd.NormalizedText)
		ranked = append(ranked, scoredWorkflow{workflow: wf, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}

	out := make([]models.WorkflowSummary, len(ranked))
	for i, r := range ranked {
		out[i] = r.workflow
	}

	if elapsed := time.Since(start); elapsed > slowRankDuration && log != nil {
		log.Warn("suggestion ranking was slow", map[string]interface{}{
			"candidates": len(candidates),
			"durationMs": elapsed.Milliseconds(),
		})
	}
	return out
}

// textRelevance scores how well the workflow title matches what the user
// asked for. An exact match on a mentioned identifier scores 1.0; otherwise
// the share of title tokens present in the query.
func textRelevance(wf models.WorkflowSummary, wanted []string, queryTokens map[string]struct{}) float64 {
	for _, w := range wanted {
		if strings.EqualFold(w, wf.Title) || w == wf.ID {
			return 1.0
		}
	}

	titleTokens := strings.Fields(strings.ToLower(wf.Title))
	if len(titleTokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range titleTokens {
		if _, ok := queryTokens[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(titleTokens))
}

func usageScore(usage, maxUsage int) float64 {
	if maxUsage <= 0 || usage <= 0 {
		return 0
	}
	return float64(usage) / float64(maxUsage)
}

func ratingScore(rating float64) float64 {
	if rating <= 0 {
		return 0
	}
	if rating >= maxRating {
		return 1
	}
	return rating / maxRating
}

func categoryFit(category, normalizedText string) float64 {
	if category == "" {
		return 0
	}
	if strings.Contains(normalizedText, strings.ToLower(category)) {
		return 1
	}
	return 0
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
