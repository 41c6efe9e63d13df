package parser

import "regexp"

// ============================================
// PATTERN LIBRARY
// ============================================

// intentPattern binds one intent to its trigger expressions. Patterns run
// against the normalized text and every match counts toward the intent score.
type intentPattern struct {
	intent   IntentType
	patterns []*regexp.Regexp
}

// urgencyEntry binds one urgency level to its keyword set. Keywords match as
// plain substrings of the normalized text.
type urgencyEntry struct {
	level    UrgencyLevel
	keywords []string
}

// timeIndicator binds one immediacy value to its trigger expression.
type timeIndicator struct {
	immediacy Immediacy
	pattern   *regexp.Regexp
}

// PatternLibrary holds every static table the parser consults. The library is
// immutable after construction and safe for concurrent use. Tests swap in a
// reduced library through NewWithLibrary.
type PatternLibrary struct {
	// Intents in declaration order. Order is the tie-break: when two intents
	// reach the same score, the one declared first wins.
	Intents []intentPattern

	// Urgency levels checked urgent -> high -> low -> normal. The first level
	// with any keyword hit wins; the default is normal.
	Urgency []urgencyEntry

	// Time indicators checked now -> soon -> later -> scheduled.
	TimeIndicators []timeIndicator

	// Parameter patterns in decreasing explicitness. The pattern's index sets
	// the extraction confidence.
	ParamPatterns []*regexp.Regexp

	quotedName  *regexp.Regexp
	bareID      *regexp.Regexp
	partialName *regexp.Regexp

	timeExprs   []*regexp.Regexp
	userRefs    []*regexp.Regexp
	systemRefs  *regexp.Regexp
	actionMods  *regexp.Regexp
	emailValue  *regexp.Regexp
	urlValue    *regexp.Regexp
	dateValue   *regexp.Regexp
	emailFinder *regexp.Regexp

	verbs        map[string]bool
	objects      map[string]bool
	modifiers    map[string]bool
	prepositions map[string]bool
	stopWords    map[string]bool
}

// NewPatternLibrary builds the default tables.
func NewPatternLibrary() *PatternLibrary {
	return &PatternLibrary{
		Intents: []intentPattern{
			{
				intent: IntentExecuteWorkflow,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(run|execute|start|launch|trigger|begin|initiate)\b`),
					regexp.MustCompile(`\b(run|execute|start|launch|trigger)\s+(the\s+|a\s+|my\s+)?(workflow|automation|process|task)\b`),
				},
			},
			{
				intent: IntentCheckStatus,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(status|progress)\b`),
					regexp.MustCompile(`\b(check\s+on|how\s+is|is\s+it\s+(running|done|finished|complete))\b`),
				},
			},
			{
				intent: IntentCancelExecution,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(cancel|stop|abort|halt|terminate|kill)\b`),
					regexp.MustCompile(`\b(cancel|stop|abort)\s+(the\s+)?(workflow|automation|process|task|execution|run)\b`),
				},
			},
			{
				intent: IntentListWorkflows,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(list|show|display)\s+(all\s+|my\s+)?(workflows?|automations?|processes|tasks)\b`),
					regexp.MustCompile(`\bwhat\s+(workflows?|automations?)\b`),
				},
			},
			{
				intent: IntentGetHistory,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(history|logs?)\b`),
					regexp.MustCompile(`\b(past|previous|recent|last)\s+(runs?|executions?)\b`),
				},
			},
			{
				intent: IntentScheduleExecution,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(schedule|postpone|defer)\b`),
					regexp.MustCompile(`\b(tomorrow|tonight|next\s+(week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
				},
			},
			{
				intent: IntentModifyParameters,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(change|update|modify|adjust|edit)\s+(the\s+)?(param(eter)?s?|settings?|values?|config(uration)?)\b`),
					regexp.MustCompile(`\bset\s+\w+\s+to\b`),
				},
			},
			{
				intent: IntentDuplicateWorkflow,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(duplicate|copy|clone)\b`),
				},
			},
			{
				intent: IntentInformationRequest,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(what|how|why|which|who)\b`),
					regexp.MustCompile(`\b(explain|describe|tell\s+me\s+about)\b`),
				},
			},
			{
				intent: IntentTroubleshoot,
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`\b(fix|debug|troubleshoot|diagnose)\b`),
					regexp.MustCompile(`\b(broken|failing|failed|error|issue|problem|not\s+working)\b`),
				},
			},
		},

		Urgency: []urgencyEntry{
			{level: UrgencyUrgent, keywords: []string{"urgent", "immediately", "right now", "right away", "asap", "emergency", "critical"}},
			{level: UrgencyHigh, keywords: []string{"important", "priority", "quickly", "as soon as possible", "fast"}},
			{level: UrgencyLow, keywords: []string{"whenever", "no rush", "eventually", "low priority", "sometime"}},
			{level: UrgencyNormal, keywords: []string{"normal priority", "standard"}},
		},

		TimeIndicators: []timeIndicator{
			{immediacy: ImmediacyNow, pattern: regexp.MustCompile(`\b(now|immediately|right\s+away|instantly)\b`)},
			{immediacy: ImmediacySoon, pattern: regexp.MustCompile(`\b(soon|shortly|in\s+a\s+(bit|moment|few))\b`)},
			{immediacy: ImmediacyLater, pattern: regexp.MustCompile(`\b(later|afterwards?|eventually|at\s+some\s+point)\b`)},
			{immediacy: ImmediacyScheduled, pattern: regexp.MustCompile(`\b(at\s+\d|tomorrow|tonight|scheduled?|next\s+(week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)},
		},

		// Ordered key="value", key: "value", key=value, key: value,
		// with key "value", using key "value". Quoted forms always win over
		// bare forms because bare values exclude the quote character.
		ParamPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`),
			regexp.MustCompile(`(\w+)\s*:\s*"([^"]*)"`),
			regexp.MustCompile(`(\w+)\s*=\s*([^\s"]+)`),
			regexp.MustCompile(`(\w+)\s*:\s*([^\s"]+)`),
			regexp.MustCompile(`\bwith\s+(\w+)\s+"([^"]*)"`),
			regexp.MustCompile(`\busing\s+(\w+)\s+"([^"]*)"`),
		},

		quotedName: regexp.MustCompile(`"([^"]+)"`),
		// Identifier-shaped tokens only: a separator or digit keeps ordinary
		// English words out of the id pass.
		bareID:      regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9]*(?:[-_][a-zA-Z0-9]+)+\b|\b[a-zA-Z]+\d[a-zA-Z0-9]*\b`),
		partialName: regexp.MustCompile(`\b(?:workflow|automation|process|task)(?:\s+(?:called|named))?\s+([A-Za-z][\w-]*(?:\s+[A-Za-z][\w-]*){0,3})`),

		timeExprs: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|yesterday)\b`),
			regexp.MustCompile(`(?i)\b(now|soon|later)\b`),
			regexp.MustCompile(`(?i)\bat\s+\d{1,2}(:\d{2})?\s*(am|pm)?\b`),
			regexp.MustCompile(`(?i)\bin\s+\d+\s+(minutes?|hours?|days?|weeks?)\b`),
			regexp.MustCompile(`(?i)\b(next|every)\s+(day|week|month|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		},
		userRefs: []*regexp.Regexp{
			regexp.MustCompile(`@(\w+)`),
			regexp.MustCompile(`(?i)\b(me|my|mine|our|us)\b`),
			regexp.MustCompile(`(?i)\buser\s+(\w+)\b`),
		},
		systemRefs: regexp.MustCompile(`(?i)\b(slack|jira|github|gitlab|salesforce|zoho|camunda|zeebe|database|server|api|webhook|calendar|crm|spreadsheet)\b`),
		actionMods: regexp.MustCompile(`(?i)\b(quickly|slowly|carefully|silently|automatically|manually|forcefully|again|once|twice|in\s+order|in\s+parallel)\b`),

		emailValue:  regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`),
		urlValue:    regexp.MustCompile(`^https?://\S+$`),
		dateValue:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})$`),
		emailFinder: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),

		verbs: wordSet(
			"run", "execute", "start", "launch", "trigger", "begin", "initiate",
			"cancel", "stop", "abort", "halt", "terminate", "kill",
			"check", "show", "list", "display", "get", "fetch",
			"schedule", "postpone", "defer",
			"change", "update", "modify", "set", "adjust", "edit",
			"duplicate", "copy", "clone",
			"fix", "debug", "troubleshoot", "diagnose",
			"create", "delete", "remove", "pause", "resume", "retry",
		),
		objects: wordSet(
			"workflow", "workflows", "automation", "automations",
			"process", "processes", "task", "tasks", "job", "jobs",
			"execution", "executions", "run", "runs", "report", "reports",
			"backup", "backups", "campaign", "campaigns", "notification", "notifications",
		),
		modifiers: wordSet(
			"quickly", "slowly", "carefully", "silently", "automatically",
			"manually", "forcefully", "again", "once", "twice", "all", "every",
		),
		prepositions: wordSet(
			"with", "using", "for", "from", "to", "on", "at", "in", "by", "of", "about", "after", "before",
		),
		stopWords: wordSet(
			"the", "a", "an", "and", "or", "but", "with", "using", "for", "from",
			"to", "on", "at", "in", "by", "of", "this", "that", "these", "those",
			"is", "are", "was", "were", "be", "been", "it", "its", "my", "me",
			"please", "can", "you", "could", "would", "should", "will", "shall",
			"now", "later", "soon", "today", "tomorrow", "tonight",
			"run", "execute", "start", "launch", "trigger", "cancel", "stop",
			"abort", "check", "show", "list", "display", "get", "set",
			"workflow", "workflows", "automation", "automations", "process",
			"task", "tasks", "called", "named", "all", "what", "how", "why",
			"when", "where", "who", "which", "status", "history", "about",
			"email", "name", "value", "user", "file", "and",
		),
	}
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// paramPatternConfidence maps the pattern index to the extraction confidence.
// Each less-explicit pattern costs a fixed decrement, floored at zero.
func paramPatternConfidence(index int) float64 {
	c := paramBaseConfidence - paramConfidenceStep*float64(index)
	if c < 0 {
		return 0
	}
	return c
}

const (
	intentMatchWeight   = 0.3
	intentScoreCeiling  = 2.0
	paramBaseConfidence = 0.8
	paramConfidenceStep = 0.1

	exactNameConfidence   = 0.95
	bareIDConfidence      = 0.8
	partialNameConfidence = 0.7
	aliasConfidence       = 0.85
	inferredConfidence    = 0.5

	bareIDMinLen = 3
	bareIDMaxLen = 50
)
