package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/common/logger"
)

// newStubCluster starts an HTTP server that plays the part of an
// Elasticsearch node. The product header is required for the client to
// accept the response.
func newStubCluster(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func newTestService(t *testing.T, cfg Config, handler http.HandlerFunc) *Service {
	t.Helper()
	return NewService(cfg, newStubCluster(t, handler), logger.NewTestLogger(t))
}

func TestSearchWorkflows_MapsHits(t *testing.T) {
	svc := newTestService(t, Config{Index: "workflows"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/_search", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "query")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"took": 3,
			"hits": {
				"total": {"value": 2, "relation": "eq"},
				"hits": [
					{"_id": "wf-100", "_score": 9.4, "_source": {
						"title": "Email Campaign",
						"description": "Send the weekly newsletter",
						"category": "marketing",
						"tags": ["email"],
						"usageCount": 42,
						"rating": 4.5
					}},
					{"_id": "wf-200", "_score": 3.1, "_source": {
						"id": "wf-200",
						"title": "Data Sync",
						"category": "data"
					}}
				]
			}
		}`))
	})

	results, err := svc.SearchWorkflows(context.Background(), Criteria{Names: []string{"Email Campaign"}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "wf-100", results[0].ID, "document id fills in when the source omits one")
	assert.Equal(t, "Email Campaign", results[0].Title)
	assert.Equal(t, 42, results[0].UsageCount)
	assert.Equal(t, "wf-200", results[1].ID)
	assert.Equal(t, "Data Sync", results[1].Title)
}

func TestSearchWorkflows_ForwardsPaging(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		wantFrom string
		wantSize string
	}{
		{
			name:     "defaults apply when unset",
			criteria: Criteria{Text: "sync"},
			wantFrom: "0",
			wantSize: "20",
		},
		{
			name:     "oversized requests clamp",
			criteria: Criteria{Text: "sync", MaxResults: 500},
			wantFrom: "0",
			wantSize: "100",
		},
		{
			name:     "explicit paging passes through",
			criteria: Criteria{Text: "sync", From: 40, MaxResults: 10},
			wantFrom: "40",
			wantSize: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFrom, gotSize string
			svc := newTestService(t, Config{Index: "workflows"}, func(w http.ResponseWriter, r *http.Request) {
				gotFrom = r.URL.Query().Get("from")
				gotSize = r.URL.Query().Get("size")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`))
			})

			_, err := svc.SearchWorkflows(context.Background(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, gotFrom)
			assert.Equal(t, tt.wantSize, gotSize)
		})
	}
}

func TestSearchWorkflows_IndexMissing(t *testing.T) {
	svc := newTestService(t, Config{Index: "workflows"}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := svc.SearchWorkflows(context.Background(), Criteria{Text: "sync"})
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestSearchWorkflows_QueryRejected(t *testing.T) {
	svc := newTestService(t, Config{Index: "workflows"}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"search_phase_execution_exception"},"status":500}`))
	})

	_, err := svc.SearchWorkflows(context.Background(), Criteria{Text: "sync"})
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}

func TestSearchWorkflows_Timeout(t *testing.T) {
	svc := newTestService(t, Config{Index: "workflows", Timeout: 20 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`))
	})

	_, err := svc.SearchWorkflows(context.Background(), Criteria{Text: "sync"})
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestSearchWorkflows_NoIndexConfigured(t *testing.T) {
	svc := NewService(Config{}, nil, logger.NewTestLogger(t))

	_, err := svc.SearchWorkflows(context.Background(), Criteria{Text: "sync"})
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestSearchWorkflows_MalformedResponse(t *testing.T) {
	svc := newTestService(t, Config{Index: "workflows"}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": "not an object"`))
	})

	_, err := svc.SearchWorkflows(context.Background(), Criteria{Text: "sync"})
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}
