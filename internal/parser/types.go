package parser

import "time"

// IntentType enumerates the closed set of command intents.
type IntentType string

const (
	IntentExecuteWorkflow    IntentType = "execute_workflow"
	IntentCheckStatus        IntentType = "check_status"
	IntentCancelExecution    IntentType = "cancel_execution"
	IntentListWorkflows      IntentType = "list_workflows"
	IntentGetHistory         IntentType = "get_history"
	IntentScheduleExecution  IntentType = "schedule_execution"
	IntentModifyParameters   IntentType = "modify_parameters"
	IntentDuplicateWorkflow  IntentType = "duplicate_workflow"
	IntentInformationRequest IntentType = "information_request"
	IntentTroubleshoot       IntentType = "troubleshoot"
)

// Valid reports whether t is one of the known intents. External analyzers
// may return arbitrary strings; callers reject anything outside the set.
func (t IntentType) Valid() bool {
	switch t {
	case IntentExecuteWorkflow, IntentCheckStatus, IntentCancelExecution,
		IntentListWorkflows, IntentGetHistory, IntentScheduleExecution,
		IntentModifyParameters, IntentDuplicateWorkflow,
		IntentInformationRequest, IntentTroubleshoot:
		return true
	}
	return false
}

// UrgencyLevel classifies how pressing a command is. The static tables never
// produce emergency; it exists for external analyzers.
type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "low"
	UrgencyNormal    UrgencyLevel = "normal"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyEmergency UrgencyLevel = "emergency"
)

// Valid reports whether u is one of the known urgency levels.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// Immediacy classifies when the user wants the command to take effect.
type Immediacy string

const (
	ImmediacyNow       Immediacy = "now"
	ImmediacySoon      Immediacy = "soon"
	ImmediacyLater     Immediacy = "later"
	ImmediacyScheduled Immediacy = "scheduled"
)

// TimeContext carries the detected immediacy and the phrase that produced it.
// A nil TimeContext means no temporal signal was found.
type TimeContext struct {
	Immediacy Immediacy `json:"immediacy"`
	Matched   string    `json:"matched,omitempty"`
}

// Intent is the classification result for one command.
type Intent struct {
	Primary     IntentType   `json:"primary"`
	Secondary   IntentType   `json:"secondary,omitempty"`
	Confidence  float64      `json:"confidence"`
	Keywords    []string     `json:"keywords,omitempty"`
	Urgency     UrgencyLevel `json:"urgencyLevel"`
	TimeContext *TimeContext `json:"timeContext,omitempty"`
}

// IdentifierType describes how a workflow identifier was recognized.
type IdentifierType string

const (
	IdentifierExactName        IdentifierType = "exact_name"
	IdentifierID               IdentifierType = "id"
	IdentifierPartialName      IdentifierType = "partial_name"
	IdentifierAlias            IdentifierType = "alias"
	IdentifierDescriptionBased IdentifierType = "description_based"
)

// Span is a [start, end) byte range into the original text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WorkflowIdentifier is one candidate workflow reference found in the text.
// Position always indexes the original (non-normalized) input so callers can
// highlight the source region.
type WorkflowIdentifier struct {
	Type       IdentifierType `json:"type"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Context    string         `json:"context,omitempty"`
	Position   Span           `json:"position"`
}

// ParameterType enumerates inferred parameter value types.
type ParameterType string

const (
	ParamTypeString        ParameterType = "string"
	ParamTypeNumber        ParameterType = "number"
	ParamTypeBoolean       ParameterType = "boolean"
	ParamTypeDate          ParameterType = "date"
	ParamTypeEmail         ParameterType = "email"
	ParamTypeURL           ParameterType = "url"
	ParamTypeJSONObject    ParameterType = "json_object"
	ParamTypeArray         ParameterType = "array"
	ParamTypeFileReference ParameterType = "file_reference"
)

// ParameterSource records how a parameter entered the command.
type ParameterSource string

const (
	SourceExplicit ParameterSource = "explicit"
	SourceInferred ParameterSource = "inferred"
	SourceDefault  ParameterSource = "default"
	SourceContext  ParameterSource = "context"
)

// Parameter validation states.
const (
	ValidationPending = "pending"
	ValidationValid   = "valid"
	ValidationInvalid = "invalid"
)

// Parameter is one extracted key/value argument. Names are not unique within
// a command: every occurrence is preserved and merging is the caller's call.
type Parameter struct {
	Name             string          `json:"name"`
	Value            interface{}     `json:"value"`
	Type             ParameterType   `json:"type"`
	Confidence       float64         `json:"confidence"`
	Source           ParameterSource `json:"source"`
	ValidationStatus string          `json:"validationStatus"`
}

// TimeExpression is a temporal phrase found in the original text.
type TimeExpression struct {
	Text     string `json:"text"`
	Position Span   `json:"position"`
}

// UserReference is a mention of a person (self-references and @mentions).
type UserReference struct {
	Text     string `json:"text"`
	Position Span   `json:"position"`
}

// SystemReference is a mention of a known platform or integration.
type SystemReference struct {
	Text     string `json:"text"`
	Position Span   `json:"position"`
}

// ActionModifier is an adverb-like qualifier on how to run the command.
type ActionModifier struct {
	Text     string `json:"text"`
	Position Span   `json:"position"`
}

// Entities bundles every extraction pass. Slice order is extraction order and
// is deterministic for a given input.
type Entities struct {
	Workflows        []WorkflowIdentifier `json:"workflows"`
	Parameters       []Parameter          `json:"parameters"`
	TimeExpressions  []TimeExpression     `json:"timeExpressions"`
	UserReferences   []UserReference      `json:"userReferences"`
	SystemReferences []SystemReference    `json:"systemReferences"`
	Modifiers        []ActionModifier     `json:"modifiers"`
}

// SentenceType is a coarse classification of the command's form.
type SentenceType string

const (
	SentenceInterrogative SentenceType = "interrogative"
	SentenceImperative    SentenceType = "imperative"
	SentenceDeclarative   SentenceType = "declarative"
)

// CommandStructure is a shallow grammatical sketch. It is a confidence
// signal, not a parse tree.
type CommandStructure struct {
	Verb         string       `json:"verb"`
	Object       string       `json:"object"`
	Modifiers    []string     `json:"modifiers,omitempty"`
	Prepositions []string     `json:"prepositions,omitempty"`
	SentenceType SentenceType `json:"sentenceType"`
}

// AlternativeInterpretation is a ranked alternate reading of the command.
type AlternativeInterpretation struct {
	Intent     IntentType `json:"intent"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// ParseMetadata carries timing and complexity signals for one parse.
type ParseMetadata struct {
	Timestamp            time.Time `json:"timestamp"`
	DurationMS           int64     `json:"durationMs"`
	WordCount            int       `json:"wordCount"`
	CharCount            int       `json:"charCount"`
	HasQuotedText        bool      `json:"hasQuotedText"`
	HasParameterSyntax   bool      `json:"hasParameterSyntax"`
	UsedFallback         bool      `json:"usedFallback"`
	DisambiguationNeeded bool      `json:"disambiguationNeeded"`
}

// ParsedCommand is the immutable result of a single parse.
type ParsedCommand struct {
	ParseID        string                      `json:"parseId"`
	OriginalText   string                      `json:"originalText"`
	NormalizedText string                      `json:"normalizedText"`
	Intent         Intent                      `json:"detectedIntent"`
	Entities       Entities                    `json:"extractedEntities"`
	Structure      CommandStructure            `json:"commandStructure"`
	Confidence     float64                     `json:"confidence"`
	Alternatives   []AlternativeInterpretation `json:"alternativeInterpretations,omitempty"`
	Metadata       ParseMetadata               `json:"parseMetadata"`
}

// ParseContext supplies optional, read-only hints that bias extraction and
// disambiguation. A nil context disables every context-dependent enrichment
// without affecting the rest of the pipeline.
type ParseContext struct {
	PreviousCommands    []string          `json:"previousCommands,omitempty"`
	AvailableWorkflows  []string          `json:"availableWorkflows,omitempty"`
	ExpectedParams      []string          `json:"expectedParams,omitempty"`
	UserPreferences     map[string]string `json:"userPreferences,omitempty"`
	ConversationHistory []string          `json:"conversationHistory,omitempty"`
}

// Validation issue and suggestion kinds.
const (
	IssueMissingWorkflow     = "missing_workflow"
	IssueLowConfidence       = "low_confidence"
	IssueLowIntentConfidence = "low_intent_confidence"
	IssueMissingParameters   = "missing_parameters"

	SuggestionIntentClarification    = "intent_clarification"
	SuggestionParameterCompletion    = "parameter_completion"
	SuggestionWorkflowDisambiguation = "workflow_disambiguation"
)

// ValidationIssue is one error or warning raised by command validation.
type ValidationIssue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a parsed command.
type ValidationResult struct {
	IsValid     bool              `json:"isValid"`
	Errors      []ValidationIssue `json:"errors,omitempty"`
	Warnings    []ValidationIssue `json:"warnings,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// CorrectionSuggestion is a ranked, human-readable way to improve a command.
type CorrectionSuggestion struct {
	Type       string   `json:"type"`
	Message    string   `json:"message"`
	Candidates []string `json:"candidates,omitempty"`
}
