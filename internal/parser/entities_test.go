package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifiers_QuotedName(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`run "Email Campaign"`, nil)

	require.Len(t, cmd.Entities.Workflows, 1)
	id := cmd.Entities.Workflows[0]
	assert.Equal(t, IdentifierExactName, id.Type)
	assert.Equal(t, "Email Campaign", id.Value)
	assert.Equal(t, 0.95, id.Confidence)
	assert.Equal(t, Span{Start: 4, End: 20}, id.Position)
	assert.Equal(t, "Email Campaign", cmd.OriginalText[id.Position.Start+1:id.Position.End-1])
}

func TestExtractIdentifiers_QuotedParamValueIsNotAName(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	tests := []struct {
		name string
		text string
	}{
		{"equals", `run with env="prod"`},
		{"colon", `run with env: "prod"`},
		{"spaced equals", `run with env = "prod"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.ParseSync(tt.text, nil)
			for _, id := range cmd.Entities.Workflows {
				assert.NotEqual(t, "prod", id.Value)
			}
		})
	}
}

func TestExtractIdentifiers_BareIDTokens(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"hyphenated", "run backup-db-sync", []string{"backup-db-sync"}},
		{"underscored", "start invoice_export please", []string{"invoice_export"}},
		{"digits", "check on wf42", []string{"wf42"}},
		{"plain words ignored", "what is the weather", nil},
		{"short token ignored", "run a1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.ParseSync(tt.text, nil)
			var got []string
			for _, id := range cmd.Entities.Workflows {
				if id.Type == IdentifierID {
					assert.Equal(t, 0.8, id.Confidence)
					got = append(got, id.Value)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIdentifiers_PartialName(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("run the workflow called daily sync", nil)

	var partials []WorkflowIdentifier
	for _, id := range cmd.Entities.Workflows {
		if id.Type == IdentifierPartialName {
			partials = append(partials, id)
		}
	}
	require.Len(t, partials, 1)
	assert.Equal(t, "daily sync", partials[0].Value)
	assert.Equal(t, 0.7, partials[0].Confidence)
}

func TestExtractIdentifiers_PartialNameAllStopWordsDropped(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	// "now" trails the workflow noun but is a stop word, not a name.
	cmd := p.ParseSync("cancel the backup automation now", nil)

	assert.Empty(t, cmd.Entities.Workflows)
}

func TestExtractIdentifiers_ContextAliases(t *testing.T) {
	p := newTestParser(t, DefaultOptions())
	pctx := &ParseContext{AvailableWorkflows: []string{"Email Campaign", "Data Sync"}}

	cmd := p.ParseSync("run the email campaign again", pctx)

	require.Len(t, cmd.Entities.Workflows, 1)
	id := cmd.Entities.Workflows[0]
	assert.Equal(t, IdentifierAlias, id.Type)
	assert.Equal(t, "Email Campaign", id.Value)
	assert.Equal(t, 0.85, id.Confidence)
	assert.Equal(t, Span{Start: 8, End: 22}, id.Position)
}

func TestExtractIdentifiers_ContextDisabledSkipsAliases(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableContextualAnalysis = false
	p := newTestParser(t, opts)
	pctx := &ParseContext{AvailableWorkflows: []string{"Email Campaign"}}

	cmd := p.ParseSync("run the email campaign again", pctx)

	assert.Empty(t, cmd.Entities.Workflows)
}

func TestExtractParameters_PatternConfidences(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	tests := []struct {
		name     string
		text     string
		pname    string
		value    interface{}
		ptype    ParameterType
		conf     float64
	}{
		{"quoted equals", `env="prod"`, "env", "prod", ParamTypeString, 0.8},
		{"quoted colon", `env: "prod"`, "env", "prod", ParamTypeString, 0.7},
		{"bare equals", "count=5", "count", 5, ParamTypeNumber, 0.6},
		{"bare colon", "day: monday", "day", "monday", ParamTypeString, 0.5},
		{"with form", `with retries "3"`, "retries", 3, ParamTypeNumber, 0.4},
		{"using form", `using format "csv"`, "format", "csv", ParamTypeString, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.ParseSync(tt.text, nil)
			require.Len(t, cmd.Entities.Parameters, 1)
			param := cmd.Entities.Parameters[0]
			assert.Equal(t, tt.pname, param.Name)
			assert.Equal(t, tt.value, param.Value)
			assert.Equal(t, tt.ptype, param.Type)
			assert.InDelta(t, tt.conf, param.Confidence, 0.0001)
			assert.Equal(t, SourceExplicit, param.Source)
			assert.Equal(t, ValidationPending, param.ValidationStatus)
		})
	}
}

func TestExtractParameters_ValueCoercion(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	tests := []struct {
		name  string
		text  string
		value interface{}
		ptype ParameterType
	}{
		{"integer", "count=5", 5, ParamTypeNumber},
		{"float", "rate=5.5", 5.5, ParamTypeNumber},
		{"true", "enabled=true", true, ParamTypeBoolean},
		{"false", "enabled=false", false, ParamTypeBoolean},
		{"email", "notify=ops@example.com", "ops@example.com", ParamTypeEmail},
		{"url", "target=https://example.com/hook", "https://example.com/hook", ParamTypeURL},
		{"iso date", "due=2026-09-01", "2026-09-01", ParamTypeDate},
		{"slash date", "due=9/1/2026", "9/1/2026", ParamTypeDate},
		{"string fallback", "mode=detached", "detached", ParamTypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.ParseSync(tt.text, nil)
			// The equals pattern runs before the colon pattern, so the
			// intended parameter is always first even when a URL value's
			// scheme colon produces a stray extra match.
			require.NotEmpty(t, cmd.Entities.Parameters)
			assert.Equal(t, tt.value, cmd.Entities.Parameters[0].Value)
			assert.Equal(t, tt.ptype, cmd.Entities.Parameters[0].Type)
		})
	}
}

func TestExtractParameters_RoundTripYieldsExactlyOne(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`key="value"`, nil)

	require.Len(t, cmd.Entities.Parameters, 1)
	assert.Equal(t, "key", cmd.Entities.Parameters[0].Name)
	assert.Equal(t, "value", cmd.Entities.Parameters[0].Value)
}

func TestExtractParameters_DuplicatesPreserved(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	// The same key written twice stays two entries; merging is the
	// caller's decision.
	cmd := p.ParseSync("retry=1 retry=2", nil)

	require.Len(t, cmd.Entities.Parameters, 2)
	assert.Equal(t, 1, cmd.Entities.Parameters[0].Value)
	assert.Equal(t, 2, cmd.Entities.Parameters[1].Value)
}

func TestExtractParameters_EmptyQuotedValue(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`note=""`, nil)

	require.Len(t, cmd.Entities.Parameters, 1)
	assert.Equal(t, "", cmd.Entities.Parameters[0].Value)
	assert.Equal(t, ParamTypeString, cmd.Entities.Parameters[0].Type)
}

func TestInferParameters_EmailFromExpectedName(t *testing.T) {
	p := newTestParser(t, DefaultOptions())
	pctx := &ParseContext{ExpectedParams: []string{"email", "subject"}}

	cmd := p.ParseSync("send the report to bob@corp.io", pctx)

	require.Len(t, cmd.Entities.Parameters, 1)
	param := cmd.Entities.Parameters[0]
	assert.Equal(t, "email", param.Name)
	assert.Equal(t, "bob@corp.io", param.Value)
	assert.Equal(t, ParamTypeEmail, param.Type)
	assert.Equal(t, SourceInferred, param.Source)
	assert.Equal(t, 0.5, param.Confidence)
}

func TestInferParameters_ExplicitValueWins(t *testing.T) {
	p := newTestParser(t, DefaultOptions())
	pctx := &ParseContext{ExpectedParams: []string{"email"}}

	cmd := p.ParseSync(`email="a@b.com" but also cc carol@corp.io`, pctx)

	for _, param := range cmd.Entities.Parameters {
		if param.Name == "email" {
			assert.Equal(t, SourceExplicit, param.Source)
		}
	}
}

func TestInferParameters_DisabledByOption(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableParameterInference = false
	p := newTestParser(t, opts)
	pctx := &ParseContext{ExpectedParams: []string{"email"}}

	cmd := p.ParseSync("send the report to bob@corp.io", pctx)

	assert.Empty(t, cmd.Entities.Parameters)
}

func TestExtractTimeExpressions(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("run the export tomorrow at 5pm", nil)

	var texts []string
	for _, expr := range cmd.Entities.TimeExpressions {
		texts = append(texts, expr.Text)
	}
	assert.Contains(t, texts, "tomorrow")
	assert.Contains(t, texts, "at 5pm")
}

func TestExtractTimeExpressions_DisabledByOption(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableTemporalParsing = false
	p := newTestParser(t, opts)

	cmd := p.ParseSync("run the export tomorrow at 5pm", nil)

	assert.Empty(t, cmd.Entities.TimeExpressions)
}

func TestExtractUserAndSystemReferences(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("run my salesforce sync and tell @dana", nil)

	var users []string
	for _, ref := range cmd.Entities.UserReferences {
		users = append(users, ref.Text)
	}
	assert.Contains(t, users, "@dana")
	assert.Contains(t, users, "my")

	require.Len(t, cmd.Entities.SystemReferences, 1)
	assert.Equal(t, "salesforce", cmd.Entities.SystemReferences[0].Text)
}

func TestExtractActionModifiers(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("run the cleanup again, quickly", nil)

	var mods []string
	for _, m := range cmd.Entities.Modifiers {
		mods = append(mods, m.Text)
	}
	assert.ElementsMatch(t, []string{"again", "quickly"}, mods)
}

func TestEntityPositions_IndexOriginalText(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	text := `please run "Nightly Backup" now`
	cmd := p.ParseSync(text, nil)

	require.NotEmpty(t, cmd.Entities.Workflows)
	id := cmd.Entities.Workflows[0]
	assert.Equal(t, `"Nightly Backup"`, text[id.Position.Start:id.Position.End])

	require.NotEmpty(t, cmd.Entities.TimeExpressions)
	expr := cmd.Entities.TimeExpressions[0]
	assert.Equal(t, expr.Text, text[expr.Position.Start:expr.Position.End])
}
