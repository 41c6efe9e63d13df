package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSync_ExecuteWithNameAndParameter(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, nil)

	assert.Equal(t, IntentExecuteWorkflow, cmd.Intent.Primary)
	assert.Greater(t, cmd.Confidence, 0.6)
	assert.False(t, cmd.Metadata.DisambiguationNeeded)

	require.Len(t, cmd.Entities.Workflows, 1)
	assert.Equal(t, IdentifierExactName, cmd.Entities.Workflows[0].Type)
	assert.Equal(t, "Email Campaign", cmd.Entities.Workflows[0].Value)
	assert.Equal(t, 0.95, cmd.Entities.Workflows[0].Confidence)

	require.Len(t, cmd.Entities.Parameters, 1)
	assert.Equal(t, "email", cmd.Entities.Parameters[0].Name)
	assert.Equal(t, "a@b.com", cmd.Entities.Parameters[0].Value)
	assert.Equal(t, ParamTypeEmail, cmd.Entities.Parameters[0].Type)
}

func TestParseSync_NonWorkflowText(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("what is the weather", nil)

	assert.Empty(t, cmd.Entities.Workflows)
	assert.Empty(t, cmd.Entities.Parameters)
	assert.True(t, cmd.Metadata.DisambiguationNeeded)

	result := p.ValidateParsedCommand(cmd)
	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, IssueMissingWorkflow, result.Errors[0].Type)
}

func TestParseSync_CancelWithTimeContext(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("cancel the backup automation now", nil)

	assert.Equal(t, IntentCancelExecution, cmd.Intent.Primary)
	require.NotNil(t, cmd.Intent.TimeContext)
	assert.Equal(t, ImmediacyNow, cmd.Intent.TimeContext.Immediacy)
}

func TestParseSync_EmptyInput(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync("", nil)

	require.NotNil(t, cmd)
	assert.Equal(t, IntentExecuteWorkflow, cmd.Intent.Primary)
	assert.Zero(t, cmd.Intent.Confidence)
	assert.True(t, cmd.Metadata.DisambiguationNeeded)
	assert.Less(t, cmd.Confidence, 0.1)
	assert.Zero(t, cmd.Metadata.WordCount)
}

func TestParseSync_Idempotent(t *testing.T) {
	p := newTestParser(t, DefaultOptions())
	text := `run workflow "Email Campaign" with email="a@b.com" now`

	first := p.ParseSync(text, nil)
	second := p.ParseSync(text, nil)

	assert.NotEqual(t, first.ParseID, second.ParseID)
	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, first.Structure, second.Structure)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Alternatives, second.Alternatives)
	assert.Equal(t, first.Metadata.DisambiguationNeeded, second.Metadata.DisambiguationNeeded)
}

func TestParseSync_Metadata(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, nil)

	assert.True(t, cmd.Metadata.HasQuotedText)
	assert.True(t, cmd.Metadata.HasParameterSyntax)
	assert.Equal(t, 9, cmd.Metadata.WordCount)
	assert.False(t, cmd.Metadata.UsedFallback)
	assert.NotEmpty(t, cmd.ParseID)
	assert.False(t, cmd.Metadata.Timestamp.IsZero())
}

func TestParse_CompletesWithinTimeout(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.Parse(context.Background(), "run the backup workflow", nil)

	require.NotNil(t, cmd)
	assert.Equal(t, IntentExecuteWorkflow, cmd.Intent.Primary)
	assert.False(t, cmd.Metadata.UsedFallback)
}

func TestParse_TimeoutFallsBackToSync(t *testing.T) {
	opts := DefaultOptions()
	opts.ParsingTimeout = 20 * time.Millisecond
	p := newTestParser(t, opts)
	p.parseDelay = 500 * time.Millisecond

	start := time.Now()
	cmd := p.Parse(context.Background(), `run workflow "Email Campaign"`, nil)

	require.NotNil(t, cmd)
	assert.True(t, cmd.Metadata.UsedFallback)
	assert.Equal(t, IntentExecuteWorkflow, cmd.Intent.Primary)
	require.Len(t, cmd.Entities.Workflows, 1)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestParse_CanceledContextFallsBackToSync(t *testing.T) {
	p := newTestParser(t, DefaultOptions())
	p.parseDelay = 500 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := p.Parse(ctx, "run the backup workflow", nil)

	require.NotNil(t, cmd)
	assert.True(t, cmd.Metadata.UsedFallback)
	assert.Equal(t, IntentExecuteWorkflow, cmd.Intent.Primary)
}

func TestDisambiguationNeeded_TracksThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.ConfidenceThreshold = 0.6
	p := newTestParser(t, opts)

	confident := p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, nil)
	assert.GreaterOrEqual(t, confident.Confidence, 0.6)
	assert.False(t, confident.Metadata.DisambiguationNeeded)

	vague := p.ParseSync("what is the weather", nil)
	assert.Less(t, vague.Confidence, 0.6)
	assert.True(t, vague.Metadata.DisambiguationNeeded)
}

func TestValidateParsedCommand_Warnings(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	// An execution request with no parameters and weak intent confidence
	// is valid but collects warnings.
	cmd := p.ParseSync(`run "Email Campaign"`, nil)
	result := p.ValidateParsedCommand(cmd)

	assert.True(t, result.IsValid)
	types := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		types = append(types, w.Type)
	}
	assert.Contains(t, types, IssueLowIntentConfidence)
	assert.Contains(t, types, IssueMissingParameters)
}

func TestValidateParsedCommand_CleanCommand(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, nil)
	result := p.ValidateParsedCommand(cmd)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	for _, w := range result.Warnings {
		assert.NotEqual(t, IssueLowConfidence, w.Type)
	}
}

func TestSuggestCorrections(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	tests := []struct {
		name     string
		text     string
		wantType string
	}{
		{"unclear intent", "what is the weather", SuggestionIntentClarification},
		{"execute without parameters", `run "Email Campaign"`, SuggestionParameterCompletion},
		{"several identifiers", `run "Email Campaign" or "Data Sync"`, SuggestionWorkflowDisambiguation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.ParseSync(tt.text, nil)
			suggestions := p.SuggestCorrections(cmd)
			var types []string
			for _, s := range suggestions {
				types = append(types, s.Type)
			}
			assert.Contains(t, types, tt.wantType)
		})
	}
}

func TestSuggestCorrections_DisambiguationListsCandidates(t *testing.T) {
	p := newTestParser(t, DefaultOptions())

	cmd := p.ParseSync(`run "Email Campaign" or "Data Sync"`, nil)
	suggestions := p.SuggestCorrections(cmd)

	var found *CorrectionSuggestion
	for i := range suggestions {
		if suggestions[i].Type == SuggestionWorkflowDisambiguation {
			found = &suggestions[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"Email Campaign", "Data Sync"}, found.Candidates)
}

func TestOptionsNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want func(t *testing.T, got Options)
	}{
		{
			name: "negative alternatives reset",
			in:   Options{MaxAlternatives: -1, ConfidenceThreshold: 0.5, ParsingTimeout: time.Second},
			want: func(t *testing.T, got Options) {
				assert.Equal(t, DefaultMaxAlternatives, got.MaxAlternatives)
			},
		},
		{
			name: "threshold above one reset",
			in:   Options{ConfidenceThreshold: 1.5, ParsingTimeout: time.Second},
			want: func(t *testing.T, got Options) {
				assert.Equal(t, DefaultConfidenceThreshold, got.ConfidenceThreshold)
			},
		},
		{
			name: "zero timeout reset",
			in:   Options{ConfidenceThreshold: 0.5},
			want: func(t *testing.T, got Options) {
				assert.Equal(t, DefaultParsingTimeout, got.ParsingTimeout)
			},
		},
		{
			name: "valid values kept",
			in:   Options{MaxAlternatives: 7, ConfidenceThreshold: 0.9, ParsingTimeout: time.Second},
			want: func(t *testing.T, got Options) {
				assert.Equal(t, 7, got.MaxAlternatives)
				assert.Equal(t, 0.9, got.ConfidenceThreshold)
				assert.Equal(t, time.Second, got.ParsingTimeout)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.in, nil)
			tt.want(t, p.Options())
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Run The Backup", "run the backup"},
		{"strips punctuation", `run "Email Campaign"!`, "run email campaign"},
		{"collapses whitespace", "run   the\tbackup", "run the backup"},
		{"keeps digits", "run wf42 at 5pm", "run wf42 at 5pm"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func BenchmarkParseSync(b *testing.B) {
	p := New(DefaultOptions(), nil)
	text := `run workflow "Email Campaign" with email="a@b.com" urgently`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ParseSync(text, nil)
	}
}

func BenchmarkParseSyncWithContext(b *testing.B) {
	p := New(DefaultOptions(), nil)
	pctx := &ParseContext{
		AvailableWorkflows: []string{"Email Campaign", "Data Sync", "Weekly Report"},
		ExpectedParams:     []string{"email"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ParseSync(`run workflow "Email Campaign" with email="a@b.com"`, pctx)
	}
}
