package boardroom

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/llm"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

type fakeCompleter struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, r llm.Request) (string, error) {
	f.requests = append(f.requests, r)
	return f.reply, f.err
}

var fixedNow = time.Date(2045, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(c Completer, opts ...GeneratorOption) *Generator {
	opts = append([]GeneratorOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewGenerator(c, zerolog.Nop(), opts...)
}

func assertReportShape(t *testing.T, r *models.MeetingReport) {
	t.Helper()
	assert.NotEmpty(t, r.ID)
	assert.NotEmpty(t, r.Summary)
	assert.NotNil(t, r.AgentContributions)
	assert.NotNil(t, r.ActionItems)
	for _, c := range r.AgentContributions {
		assert.NotEmpty(t, c.AgentID)
		assert.NotEmpty(t, c.AgentName)
		assert.NotEmpty(t, c.Role)
		assert.NotEmpty(t, c.Insight)
		assert.Contains(t, []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}, c.Priority)
	}
	for _, a := range r.ActionItems {
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.AssignedTo)
		assert.Contains(t, []models.ActionStatus{models.ActionPending, models.ActionInProgress, models.ActionCompleted}, a.Status)
	}
	for _, m := range r.Metrics {
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Value)
		assert.Contains(t, []models.Trend{models.TrendUp, models.TrendDown, models.TrendStable}, m.Trend)
	}
}

func TestGenerateParsesReport(t *testing.T) {
	fc := &fakeCompleter{reply: `{
		"summary": "All systems nominal.",
		"agentContributions": [
			{"agentId": "helios", "agentName": "Helios", "role": "Quantum-Security", "insight": "Keys rotated", "priority": "high"}
		],
		"actionItems": [
			{"title": "Audit bridge", "assignedTo": "Nexus", "priority": "low", "status": "in_progress", "dueDate": "2045-03-08"}
		],
		"metrics": [
			{"name": "TPS", "value": 1200, "change": "3.5", "trend": "up"}
		]
	}`}
	g := newTestGenerator(fc)

	r, err := g.Generate(context.Background(), models.MeetingWeekly)
	require.NoError(t, err)
	assertReportShape(t, r)

	assert.Equal(t, models.MeetingWeekly, r.Type)
	assert.Equal(t, fixedNow, r.Timestamp)
	assert.Equal(t, "All systems nominal.", r.Summary)
	assert.Equal(t, models.PriorityHigh, r.AgentContributions[0].Priority)
	assert.Equal(t, "action-0-"+strconv.FormatInt(fixedNow.UnixMilli(), 10), r.ActionItems[0].ID)
	assert.Equal(t, models.ActionInProgress, r.ActionItems[0].Status)
	assert.Equal(t, "2045-03-08", r.ActionItems[0].DueDate)
	assert.Equal(t, "1200", r.Metrics[0].Value)
	assert.Equal(t, 3.5, r.Metrics[0].Change)

	require.Len(t, fc.requests, 1)
	req := fc.requests[0]
	assert.True(t, req.JSON)
	assert.Equal(t, 2048, req.MaxTokens)
	assert.Equal(t, SystemPrompt(), req.Messages[0].Content)
	assert.Equal(t, MeetingPrompt(models.MeetingWeekly), req.Messages[1].Content)
}

func TestGenerateNeverFailsOnMalformedOutput(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantSummary string
	}{
		{"invalid JSON", `{"summary": "cut off`, fallbackSummary},
		{"not an object", `["a","b"]`, fallbackSummary},
		{"plain prose", `Here is your report!`, fallbackSummary},
		{"empty completion", ``, emptySummary},
		{"empty object", `{}`, emptySummary},
		{"wrong field types", `{"summary": 42, "agentContributions": "none", "actionItems": {"a":1}, "metrics": null}`, emptySummary},
		{"fenced JSON", "```json\n{\"summary\": \"fenced\"}\n```", "fenced"},
		{"NaN change", `{"summary":"ok","metrics":[{"name":"UPX","value":"1","change":"NaN","trend":"up"}]}`, "ok"},
		{"infinite change", `{"summary":"ok","metrics":[{"name":"UPX","value":"1","change":"Infinity","trend":"up"},{"change":"-Inf"}]}`, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(&fakeCompleter{reply: tt.reply})
			r, err := g.Generate(context.Background(), models.MeetingDaily)
			require.NoError(t, err)
			assertReportShape(t, r)
			assert.Equal(t, tt.wantSummary, r.Summary)
			for _, m := range r.Metrics {
				assert.Zero(t, m.Change)
			}

			_, err = json.Marshal(r)
			assert.NoError(t, err)
		})
	}
}

func TestGenerateFillsDefaults(t *testing.T) {
	g := newTestGenerator(&fakeCompleter{reply: `{
		"agentContributions": [{}, "junk", {"priority": "urgent"}],
		"actionItems": [{}, {"status": "blocked"}],
		"metrics": [{}, {"change": "n/a", "trend": "sideways", "value": ""}]
	}`})

	r, err := g.Generate(context.Background(), models.MeetingOnCall)
	require.NoError(t, err)
	assertReportShape(t, r)

	require.Len(t, r.AgentContributions, 3)
	c := r.AgentContributions[0]
	assert.Equal(t, "unknown", c.AgentID)
	assert.Equal(t, "Unknown Agent", c.AgentName)
	assert.Equal(t, "Unknown Role", c.Role)
	assert.Equal(t, "No insight provided.", c.Insight)
	assert.Equal(t, models.PriorityMedium, c.Priority)
	assert.Equal(t, models.PriorityMedium, r.AgentContributions[2].Priority)

	require.Len(t, r.ActionItems, 2)
	assert.Equal(t, "Untitled action", r.ActionItems[0].Title)
	assert.Equal(t, "Unassigned", r.ActionItems[0].AssignedTo)
	assert.Equal(t, models.ActionPending, r.ActionItems[1].Status)
	assert.NotEqual(t, r.ActionItems[0].ID, r.ActionItems[1].ID)

	require.Len(t, r.Metrics, 2)
	assert.Equal(t, "Unnamed metric", r.Metrics[0].Name)
	assert.Equal(t, "n/a", r.Metrics[1].Value)
	assert.Equal(t, 0.0, r.Metrics[1].Change)
	assert.Equal(t, models.TrendStable, r.Metrics[1].Trend)
}

func TestGeneratePropagatesTransportErrors(t *testing.T) {
	g := newTestGenerator(&fakeCompleter{err: llm.ErrUpstream})
	_, err := g.Generate(context.Background(), models.MeetingDaily)
	assert.ErrorIs(t, err, llm.ErrUpstream)
}

func TestAskAgentUsesPickedPersona(t *testing.T) {
	fc := &fakeCompleter{reply: "Risk is contained."}
	g := newTestGenerator(fc, WithPicker(func(n int) int {
		assert.Equal(t, 12, n)
		return 5
	}))

	reply, err := g.AskAgent(context.Background(), "What about UPX risk?")
	require.NoError(t, err)
	assert.Equal(t, "morpheus", reply.Agent.ID)
	assert.Equal(t, "Risk is contained.", reply.Response)

	req := fc.requests[0]
	assert.Equal(t, 1024, req.MaxTokens)
	assert.False(t, req.JSON)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, "You are Morpheus, the Behavior & Risk Nano Agent of UnityPay 2045."))
	assert.Equal(t, "What about UPX risk?", req.Messages[1].Content)
}

func TestAskAgentFallbackAndErrors(t *testing.T) {
	g := newTestGenerator(&fakeCompleter{reply: ""})
	reply, err := g.AskAgent(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, askFallback, reply.Response)

	g = newTestGenerator(&fakeCompleter{err: errors.New("boom")})
	_, err = g.AskAgent(context.Background(), "hi")
	assert.Error(t, err)
}

func TestRunAudit(t *testing.T) {
	fc := &fakeCompleter{reply: "Score: 88/100"}
	out, err := newTestGenerator(fc).RunAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Score: 88/100", out)
	assert.Contains(t, fc.requests[0].Messages[0].Content, "Helios")
	assert.Equal(t, auditUserPrompt, fc.requests[0].Messages[1].Content)

	out, err = newTestGenerator(&fakeCompleter{}).RunAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auditFallback, out)
}

func TestPromptsCoverCatalog(t *testing.T) {
	sys := SystemPrompt()
	for _, a := range Catalog() {
		assert.Contains(t, sys, a.Name)
	}
	for _, typ := range models.MeetingTypes() {
		assert.NotEmpty(t, MeetingPrompt(typ), typ)
	}
	assert.Contains(t, MeetingPrompt(models.MeetingDaily), "blockers")
	assert.Contains(t, MeetingPrompt(models.MeetingOnCall), "Escalation")
}

func TestCatalog(t *testing.T) {
	agents := Catalog()
	require.Len(t, agents, 12)
	seen := map[string]bool{}
	for _, a := range agents {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
		assert.Equal(t, models.AgentActive, a.Status)
	}
	agents[0].Name = "mutated"
	assert.Equal(t, "Athena", Catalog()[0].Name, "Catalog returns a copy")

	infos := MeetingTypeInfos()
	require.Len(t, infos, 6)
	assert.Equal(t, "On-Call", infos[5].Label)
}
