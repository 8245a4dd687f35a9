package boardroom

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/llm"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

const (
	reportMaxTokens = 2048
	askMaxTokens    = 1024
	auditMaxTokens  = 2048

	askFallback   = "I apologize, I couldn't process that request. Please try again."
	auditFallback = "Audit could not be completed."
)

// Completer produces a chat completion. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, r llm.Request) (string, error)
}

// AgentReply is one persona answer to a chat message.
type AgentReply struct {
	Response string
	Agent    models.NanoAgent
}

// Generator builds prompts, calls the model and shapes its output.
type Generator struct {
	llm    Completer
	pick   func(n int) int
	now    func() time.Time
	logger zerolog.Logger
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithPicker replaces the uniform random agent choice. pick(n) must return
// a value in [0, n).
func WithPicker(pick func(n int) int) GeneratorOption {
	return func(g *Generator) { g.pick = pick }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a report generator.
func NewGenerator(c Completer, logger zerolog.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		llm:    c,
		pick:   rand.IntN,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "generator").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a fresh report for t. Malformed model output degrades to
// a default-shaped report; only transport failures are returned.
func (g *Generator) Generate(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	content, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt()},
			{Role: llm.RoleUser, Content: MeetingPrompt(t)},
		},
		JSON:      true,
		MaxTokens: reportMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s report: %w", t, err)
	}

	now := g.now()
	body := parseReport(content, now)
	if body.Summary == fallbackSummary {
		g.logger.Warn().Str("type", string(t)).Int("bytes", len(content)).Msg("Unparseable report output, using fallback")
	}

	return &models.MeetingReport{
		ID:                 crypto.NewID(),
		Type:               t,
		Timestamp:          now,
		Summary:            body.Summary,
		AgentContributions: body.AgentContributions,
		ActionItems:        body.ActionItems,
		Metrics:            body.Metrics,
	}, nil
}

// AskAgent answers message in the voice of a uniformly chosen agent.
func (g *Generator) AskAgent(ctx context.Context, message string) (AgentReply, error) {
	agent := catalog[g.pick(len(catalog))]

	content, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: PersonaPrompt(agent)},
			{Role: llm.RoleUser, Content: message},
		},
		MaxTokens: askMaxTokens,
	})
	if err != nil {
		return AgentReply{}, fmt.Errorf("ask %s: %w", agent.ID, err)
	}
	if content == "" {
		content = askFallback
	}
	return AgentReply{Response: content, Agent: agent}, nil
}

// RunAudit asks Helios for a free-text security audit.
func (g *Generator) RunAudit(ctx context.Context) (string, error) {
	content, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: auditSystemPrompt},
			{Role: llm.RoleUser, Content: auditUserPrompt},
		},
		MaxTokens: auditMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("run audit: %w", err)
	}
	if content == "" {
		content = auditFallback
	}
	return content, nil
}
