package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
)

var (
	ErrElasticsearchConnectionFailed = errors.New("ELASTICSEARCH_CONNECTION_FAILED")
	ErrSearchQueryFailed             = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout                 = errors.New("SEARCH_TIMEOUT")
	ErrIndexNotFound                 = errors.New("INDEX_NOT_FOUND")
)

const (
	defaultMaxResults = 20
	maxMaxResults     = 100
)

// Config holds the search service settings.
type Config struct {
	Index   string
	Timeout time.Duration
}

// Service answers workflow searches against the catalog index.
type Service struct {
	config Config
	client *elasticsearch.Client
	logger logger.Logger
}

// NewService builds a search service on an established client.
func NewService(cfg Config, client *elasticsearch.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config: cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "workflow-search"}),
	}
}

// SearchWorkflows runs one search and returns the matching summaries in
// score order.
func (s *Service) SearchWorkflows(ctx context.Context, criteria Criteria) ([]models.WorkflowSummary, error) {
	if s.config.Index == "" {
		return nil, ErrIndexNotFound
	}
	if criteria.MaxResults < 1 {
		criteria.MaxResults = defaultMaxResults
	}
	if criteria.MaxResults > maxMaxResults {
		criteria.MaxResults = maxMaxResults
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	req := buildSearchRequest(s.config.Index, criteria)

	start := time.Now()
	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrElasticsearchConnectionFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                 `json:"_id"`
				Score  float64                `json:"_score"`
				Source models.WorkflowSummary `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	summaries := make([]models.WorkflowSummary, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		summary := hit.Source
		if summary.ID == "" {
			summary.ID = hit.ID
		}
		summaries = append(summaries, summary)
	}

	s.logger.Debug("workflow search completed", map[string]interface{}{
		"query":      criteria.queryText(),
		"totalHits":  r.Hits.Total.Value,
		"returned":   len(summaries),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return summaries, nil
}
