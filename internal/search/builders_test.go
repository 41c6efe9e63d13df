package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchBody_NamesDriveTheQuery(t *testing.T) {
	body := buildSearchBody(Criteria{
		Text:  "run the email thing",
		Names: []string{"Email Campaign", "email-sync"},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)

	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "Email Campaign email-sync", multiMatch["query"])
	assert.Equal(t, []string{"title^3", "description^2", "category", "tags"}, multiMatch["fields"])
}

func TestBuildSearchBody_FreeTextFallback(t *testing.T) {
	body := buildSearchBody(Criteria{Text: "backup database"})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "backup database", multiMatch["query"])
}

func TestBuildSearchBody_MatchAllWhenEmpty(t *testing.T) {
	body := buildSearchBody(Criteria{})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Contains(t, must[0].(map[string]interface{}), "match_all")

	_, hasFilter := boolQuery["filter"]
	assert.False(t, hasFilter)
}

func TestBuildSearchBody_Filters(t *testing.T) {
	body := buildSearchBody(Criteria{
		Text:     "sync",
		Category: "data",
		Tags:     []string{"nightly", "critical"},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 2)

	term := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "data", term["category"])

	terms := filters[1].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []string{"nightly", "critical"}, terms["tags"])
}

func TestBuildSearchBody_SortsByScoreThenUsage(t *testing.T) {
	body := buildSearchBody(Criteria{Text: "sync"})

	sort := body["sort"].([]map[string]interface{})
	require.Len(t, sort, 2)
	assert.Equal(t, "desc", sort[0]["_score"])
	assert.Equal(t, "desc", sort[1]["usageCount"])
}
