package parser

import "math"

// ============================================
// CONFIDENCE SCORING
// ============================================

// Weights of the overall confidence blend. Entity terms contribute zero when
// their pass found nothing, so sparse commands score low without erroring.
const (
	intentWeight          = 0.4
	identifierWeight      = 0.3
	parameterWeight       = 0.2
	structureFullBonus    = 0.1
	structurePartialBonus = 0.05
)

// combineConfidence blends intent, entity and structure signals into the
// overall command confidence, clamped to [0, 1].
func (p *Parser) combineConfidence(intent Intent, ents Entities, structure CommandStructure) float64 {
	score := intentWeight * intent.Confidence
	score += identifierWeight * avgIdentifierConfidence(ents.Workflows)
	score += parameterWeight * avgParameterConfidence(ents.Parameters)
	if structure.Verb != "" && structure.Object != "" {
		score += structureFullBonus
	} else {
		score += structurePartialBonus
	}
	return math.Min(score, 1.0)
}

func avgIdentifierConfidence(ids []WorkflowIdentifier) float64 {
	if len(ids) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range ids {
		sum += id.Confidence
	}
	return sum / float64(len(ids))
}

func avgParameterConfidence(params []Parameter) float64 {
	if len(params) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range params {
		sum += p.Confidence
	}
	return sum / float64(len(params))
}

// ============================================
// ALTERNATIVE INTERPRETATIONS
// ============================================

// alternativeCandidate proposes a companion reading at a fraction of the
// primary confidence.
type alternativeCandidate struct {
	intent    IntentType
	factor    float64
	reasoning string
}

// alternativesByIntent maps each primary intent to its plausible alternates,
// strongest first.
var alternativesByIntent = map[IntentType][]alternativeCandidate{
	IntentExecuteWorkflow: {
		{IntentCheckStatus, 0.7, "execution requests are often really asking whether something already ran"},
		{IntentScheduleExecution, 0.5, "the command may describe a deferred run rather than an immediate one"},
	},
	IntentCheckStatus: {
		{IntentGetHistory, 0.7, "a status question may be about past runs rather than the current one"},
		{IntentExecuteWorkflow, 0.5, "the user may want to run the workflow, not inspect it"},
	},
	IntentCancelExecution: {
		{IntentCheckStatus, 0.6, "the user may want to see the execution before stopping it"},
	},
	IntentListWorkflows: {
		{IntentInformationRequest, 0.6, "listing requests sometimes ask what a workflow does"},
	},
	IntentGetHistory: {
		{IntentCheckStatus, 0.6, "history questions often target the most recent run"},
	},
	IntentScheduleExecution: {
		{IntentExecuteWorkflow, 0.7, "the schedule phrasing may just mean run it now"},
	},
	IntentModifyParameters: {
		{IntentExecuteWorkflow, 0.5, "parameter changes usually precede a run"},
	},
	IntentDuplicateWorkflow: {
		{IntentExecuteWorkflow, 0.5, "copy requests sometimes mean run the same workflow again"},
	},
	IntentInformationRequest: {
		{IntentListWorkflows, 0.6, "general questions often resolve to browsing the catalog"},
	},
	IntentTroubleshoot: {
		{IntentCheckStatus, 0.6, "failure reports usually start with the current state"},
	},
}

// buildAlternatives derives alternate readings from the primary intent,
// capped at the configured maximum.
func (p *Parser) buildAlternatives(intent Intent) []AlternativeInterpretation {
	if !p.opts.EnableAlternativeInterpretations || p.opts.MaxAlternatives == 0 {
		return nil
	}
	var alts []AlternativeInterpretation
	for _, cand := range alternativesByIntent[intent.Primary] {
		if len(alts) >= p.opts.MaxAlternatives {
			break
		}
		alts = append(alts, AlternativeInterpretation{
			Intent:     cand.intent,
			Confidence: cand.factor * intent.Confidence,
			Reasoning:  cand.reasoning,
		})
	}
	return alts
}
