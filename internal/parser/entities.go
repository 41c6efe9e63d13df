package parser

import (
	"strconv"
	"strings"
)

// ============================================
// ENTITY EXTRACTION
// ============================================

// extractEntities runs every extraction pass over the original text. Passes
// are independent and their results concatenate; one input may legitimately
// yield several identifiers of different types for the same substring.
// Positions always index the original text, never the normalized form.
func (p *Parser) extractEntities(original string, pctx *ParseContext) Entities {
	ents := Entities{
		Workflows:        p.extractWorkflowIdentifiers(original, pctx),
		Parameters:       p.extractParameters(original, pctx),
		UserReferences:   p.extractUserReferences(original),
		SystemReferences: p.extractSystemReferences(original),
		Modifiers:        p.extractActionModifiers(original),
	}
	if p.opts.EnableTemporalParsing {
		ents.TimeExpressions = p.extractTimeExpressions(original)
	}
	return ents
}

// extractWorkflowIdentifiers runs the quoted-name, bare-id and partial-name
// passes, then enriches with known workflow names from the context.
func (p *Parser) extractWorkflowIdentifiers(original string, pctx *ParseContext) []WorkflowIdentifier {
	var ids []WorkflowIdentifier

	// Quoted names. A quote introduced by '=' or ':' is a parameter value,
	// not a workflow name.
	for _, m := range p.lib.quotedName.FindAllStringSubmatchIndex(original, -1) {
		if isParamValueQuote(original, m[0]) {
			continue
		}
		ids = append(ids, WorkflowIdentifier{
			Type:       IdentifierExactName,
			Value:      original[m[2]:m[3]],
			Confidence: exactNameConfidence,
			Context:    contextWindow(original, m[0], m[1]),
			Position:   Span{Start: m[0], End: m[1]},
		})
	}

	// Identifier-shaped tokens.
	for _, m := range p.lib.bareID.FindAllStringIndex(original, -1) {
		token := original[m[0]:m[1]]
		if len(token) < bareIDMinLen || len(token) > bareIDMaxLen {
			continue
		}
		if p.lib.stopWords[strings.ToLower(token)] {
			continue
		}
		ids = append(ids, WorkflowIdentifier{
			Type:       IdentifierID,
			Value:      token,
			Confidence: bareIDConfidence,
			Context:    contextWindow(original, m[0], m[1]),
			Position:   Span{Start: m[0], End: m[1]},
		})
	}

	// Names trailing a workflow noun ("run the automation called daily sync").
	for _, m := range p.lib.partialName.FindAllStringSubmatchIndex(original, -1) {
		start, end, ok := p.trimStopWords(original, m[2], m[3])
		if !ok {
			continue
		}
		ids = append(ids, WorkflowIdentifier{
			Type:       IdentifierPartialName,
			Value:      original[start:end],
			Confidence: partialNameConfidence,
			Context:    contextWindow(original, start, end),
			Position:   Span{Start: start, End: end},
		})
	}

	if p.opts.EnableContextualAnalysis && pctx != nil {
		ids = append(ids, p.matchKnownWorkflows(original, pctx.AvailableWorkflows, ids)...)
	}
	return ids
}

// isParamValueQuote reports whether the quote at index start opens a
// parameter value, i.e. the nearest non-space character before it is an
// assignment separator.
func isParamValueQuote(text string, start int) bool {
	for i := start - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '=', ':':
			return true
		default:
			return false
		}
	}
	return false
}

// trimStopWords narrows a captured phrase to its non-stop-word core and
// reports whether anything remains.
func (p *Parser) trimStopWords(text string, start, end int) (int, int, bool) {
	words := strings.Fields(text[start:end])
	offsets := make([]Span, 0, len(words))
	cursor := start
	for _, w := range words {
		idx := strings.Index(text[cursor:end], w)
		ws := cursor + idx
		offsets = append(offsets, Span{Start: ws, End: ws + len(w)})
		cursor = ws + len(w)
	}
	lo, hi := 0, len(words)-1
	for lo <= hi && p.lib.stopWords[strings.ToLower(words[lo])] {
		lo++
	}
	for hi >= lo && p.lib.stopWords[strings.ToLower(words[hi])] {
		hi--
	}
	if lo > hi {
		return 0, 0, false
	}
	return offsets[lo].Start, offsets[hi].End, true
}

// matchKnownWorkflows surfaces available workflow names the user typed
// without quotes. Names already extracted by an earlier pass are skipped.
func (p *Parser) matchKnownWorkflows(original string, known []string, existing []WorkflowIdentifier) []WorkflowIdentifier {
	var ids []WorkflowIdentifier
	lowered := strings.ToLower(original)
	for _, name := range known {
		if name == "" {
			continue
		}
		idx := strings.Index(lowered, strings.ToLower(name))
		if idx < 0 {
			continue
		}
		dup := false
		for _, ex := range existing {
			if strings.EqualFold(ex.Value, name) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		ids = append(ids, WorkflowIdentifier{
			Type:       IdentifierAlias,
			Value:      name,
			Confidence: aliasConfidence,
			Context:    contextWindow(original, idx, idx+len(name)),
			Position:   Span{Start: idx, End: idx + len(name)},
		})
	}
	return ids
}

// extractParameters runs every parameter pattern over the original text.
// Patterns run independently and matches are never deduplicated by name, so
// a key written twice yields two entries. When the context names expected
// parameters, missing ones are inferred where a safe heuristic exists.
func (p *Parser) extractParameters(original string, pctx *ParseContext) []Parameter {
	var params []Parameter
	for i, re := range p.lib.ParamPatterns {
		for _, m := range re.FindAllStringSubmatch(original, -1) {
			value, ptype := p.coerceValue(m[2])
			params = append(params, Parameter{
				Name:             m[1],
				Value:            value,
				Type:             ptype,
				Confidence:       paramPatternConfidence(i),
				Source:           SourceExplicit,
				ValidationStatus: ValidationPending,
			})
		}
	}
	if p.opts.EnableParameterInference && pctx != nil {
		params = append(params, p.inferParameters(original, pctx.ExpectedParams, params)...)
	}
	return params
}

// inferParameters fills expected parameters the user did not spell out.
// Email inference is the only heuristic so far: an expected name that
// suggests an address is filled from the first email-shaped token.
func (p *Parser) inferParameters(original string, expected []string, found []Parameter) []Parameter {
	var inferred []Parameter
	for _, name := range expected {
		present := false
		for _, f := range found {
			if strings.EqualFold(f.Name, name) {
				present = true
				break
			}
		}
		if present || !nameSuggestsEmail(name) {
			continue
		}
		addr := p.lib.emailFinder.FindString(original)
		if addr == "" {
			continue
		}
		inferred = append(inferred, Parameter{
			Name:             name,
			Value:            addr,
			Type:             ParamTypeEmail,
			Confidence:       inferredConfidence,
			Source:           SourceInferred,
			ValidationStatus: ValidationPending,
		})
	}
	return inferred
}

func nameSuggestsEmail(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "email") || strings.Contains(n, "mail") || n == "recipient" || n == "to"
}

// coerceValue types a raw parameter value. Checks run in a fixed order and
// the first hit wins; anything unrecognized stays a string.
func (p *Parser) coerceValue(raw string) (interface{}, ParameterType) {
	switch {
	case p.lib.emailValue.MatchString(raw):
		return raw, ParamTypeEmail
	case p.lib.urlValue.MatchString(raw):
		return raw, ParamTypeURL
	case p.lib.dateValue.MatchString(raw):
		return raw, ParamTypeDate
	case raw == "true" || raw == "false":
		return raw == "true", ParamTypeBoolean
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, ParamTypeNumber
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, ParamTypeNumber
	}
	return raw, ParamTypeString
}

func (p *Parser) extractTimeExpressions(original string) []TimeExpression {
	var exprs []TimeExpression
	for _, re := range p.lib.timeExprs {
		for _, m := range re.FindAllStringIndex(original, -1) {
			exprs = append(exprs, TimeExpression{
				Text:     original[m[0]:m[1]],
				Position: Span{Start: m[0], End: m[1]},
			})
		}
	}
	return exprs
}

func (p *Parser) extractUserReferences(original string) []UserReference {
	var refs []UserReference
	for _, re := range p.lib.userRefs {
		for _, m := range re.FindAllStringIndex(original, -1) {
			refs = append(refs, UserReference{
				Text:     original[m[0]:m[1]],
				Position: Span{Start: m[0], End: m[1]},
			})
		}
	}
	return refs
}

func (p *Parser) extractSystemReferences(original string) []SystemReference {
	var refs []SystemReference
	for _, m := range p.lib.systemRefs.FindAllStringIndex(original, -1) {
		refs = append(refs, SystemReference{
			Text:     original[m[0]:m[1]],
			Position: Span{Start: m[0], End: m[1]},
		})
	}
	return refs
}

func (p *Parser) extractActionModifiers(original string) []ActionModifier {
	var mods []ActionModifier
	for _, m := range p.lib.actionMods.FindAllStringIndex(original, -1) {
		mods = append(mods, ActionModifier{
			Text:     original[m[0]:m[1]],
			Position: Span{Start: m[0], End: m[1]},
		})
	}
	return mods
}

// contextWindow returns a short snippet around a match for display.
func contextWindow(text string, start, end int) string {
	const pad = 20
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}
