package models

import "time"

// WorkflowSummary is the catalog view of a workflow used in chat replies and
// search results.
type WorkflowSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
	Tags        []string `json:"tags,omitempty"`
	UsageCount  int      `json:"usageCount"`
	Rating      float64  `json:"rating"`
}

// WorkflowDetail extends the summary with execution metadata from the
// catalog store.
type WorkflowDetail struct {
	WorkflowSummary
	Parameters []WorkflowParameter `json:"parameters,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	Active     bool                `json:"active"`
}

// WorkflowParameter describes one input a workflow accepts.
type WorkflowParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
}
