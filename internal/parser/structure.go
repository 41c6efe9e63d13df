package parser

import "strings"

// ============================================
// STRUCTURE ANALYSIS
// ============================================

// analyzeStructure sketches the grammatical shape of the command from the
// normalized tokens. The question-mark check uses the original text because
// normalization strips punctuation.
func (p *Parser) analyzeStructure(original, normalized string) CommandStructure {
	tokens := strings.Fields(normalized)

	structure := CommandStructure{SentenceType: SentenceDeclarative}
	if len(tokens) == 0 {
		return structure
	}

	for _, t := range tokens {
		if p.lib.verbs[t] {
			structure.Verb = t
			break
		}
	}
	if structure.Verb == "" {
		structure.Verb = tokens[0]
	}

	for _, t := range tokens {
		if p.lib.objects[t] {
			structure.Object = t
			break
		}
	}

	for _, t := range tokens {
		if p.lib.modifiers[t] {
			structure.Modifiers = append(structure.Modifiers, t)
		}
	}
	for _, t := range tokens {
		if p.lib.prepositions[t] {
			structure.Prepositions = append(structure.Prepositions, t)
		}
	}

	switch {
	case strings.Contains(original, "?"):
		structure.SentenceType = SentenceInterrogative
	case p.lib.verbs[tokens[0]]:
		structure.SentenceType = SentenceImperative
	}
	return structure
}
