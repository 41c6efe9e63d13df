package analyzer

// Message is one conversation turn forwarded to the intent API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnalyzeRequest is the POST body for /v1/analyze-intent.
type AnalyzeRequest struct {
	Text    string    `json:"text"`
	History []Message `json:"history,omitempty"`
}

// RefineRequest is the POST body for /v1/refine-intent: the previously
// classified intent plus the user's follow-up feedback.
type RefineRequest struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Urgency    string   `json:"urgency,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Feedback   string   `json:"feedback"`
}

// AnalyzeResponse is the intent API's answer. Field names follow the wire
// contract; the client maps them onto the parser's Intent type.
type AnalyzeResponse struct {
	Intent       string   `json:"intent"`
	Confidence   float64  `json:"confidence"`
	UrgencyLevel string   `json:"urgencyLevel"`
	Keywords     []string `json:"keywords,omitempty"`
	TimeContext  *struct {
		Immediacy string `json:"immediacy"`
		Matched   string `json:"matched,omitempty"`
	} `json:"timeContext,omitempty"`
}
