package parser

import (
	"math"
	"strings"
)

// ============================================
// INTENT CLASSIFICATION
// ============================================

// classifyIntent scores every intent against the normalized text and returns
// the best reading. Each regex hit adds a fixed weight to the intent's score;
// the raw score divided by the ceiling, capped at 1.0, becomes the intent
// confidence. Ties resolve to the intent declared first in the library.
func (p *Parser) classifyIntent(normalized string) Intent {
	bestIntent := IntentType("")
	bestScore := -1.0
	secondIntent := IntentType("")
	secondScore := -1.0
	var bestKeywords []string

	for _, entry := range p.lib.Intents {
		score := 0.0
		var keywords []string
		for _, re := range entry.patterns {
			hits := re.FindAllString(normalized, -1)
			score += float64(len(hits)) * intentMatchWeight
			keywords = append(keywords, hits...)
		}
		if score > bestScore {
			secondIntent, secondScore = bestIntent, bestScore
			bestIntent, bestScore = entry.intent, score
			bestKeywords = keywords
		} else if score > secondScore {
			secondIntent, secondScore = entry.intent, score
		}
	}

	intent := Intent{
		Primary:    bestIntent,
		Confidence: math.Min(bestScore/intentScoreCeiling, 1.0),
		Keywords:   bestKeywords,
		Urgency:    p.detectUrgency(normalized),
	}
	if bestScore <= 0 {
		// Nothing matched: fall back to execution, the most common request.
		intent.Primary = IntentExecuteWorkflow
		intent.Confidence = 0
		intent.Keywords = nil
	}
	if secondScore > 0 && secondIntent != intent.Primary {
		intent.Secondary = secondIntent
	}
	if tc := p.detectTimeContext(normalized); tc != nil {
		intent.TimeContext = tc
	}
	return intent
}

// detectUrgency walks the urgency table in order and returns the first level
// with any keyword present as a substring. Defaults to normal.
func (p *Parser) detectUrgency(normalized string) UrgencyLevel {
	for _, entry := range p.lib.Urgency {
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, kw) {
				return entry.level
			}
		}
	}
	return UrgencyNormal
}

// detectTimeContext checks the immediacy indicators in priority order and
// returns the first hit, or nil when the text carries no temporal signal.
func (p *Parser) detectTimeContext(normalized string) *TimeContext {
	for _, ind := range p.lib.TimeIndicators {
		if m := ind.pattern.FindString(normalized); m != "" {
			return &TimeContext{Immediacy: ind.immediacy, Matched: m}
		}
	}
	return nil
}
