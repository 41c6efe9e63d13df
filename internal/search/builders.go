package search

import (
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Criteria describes one workflow search. Names usually come straight from
// the identifiers a parsed command extracted; Text is the raw command for
// fuzzier matching when no identifier was found.
type Criteria struct {
	Text       string
	Names      []string
	Category   string
	Tags       []string
	From       int
	MaxResults int
}

// queryText joins the identifier values, falling back to the free text.
func (c Criteria) queryText() string {
	if len(c.Names) > 0 {
		return strings.Join(c.Names, " ")
	}
	return c.Text
}

// buildSearchRequest assembles the search call for one criteria set.
func buildSearchRequest(index string, c Criteria) esapi.SearchRequest {
	body, _ := json.Marshal(buildSearchBody(c))

	from := c.From
	size := c.MaxResults
	return esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}
}

// buildSearchBody builds a bool query: the query text matches across the
// boosted name fields, category and tags narrow as filters, and popular
// workflows rank first among equal scores.
func buildSearchBody(c Criteria) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if text := c.queryText(); text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title^3", "description^2", "category", "tags"},
				"type":   "best_fields",
			},
		})
	}

	if c.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": c.Category},
		})
	}
	if len(c.Tags) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": c.Tags},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort": []map[string]interface{}{
			{"_score": "desc"},
			{"usageCount": "desc"},
		},
	}
}
