package boardroom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/metrics"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// ErrMessageRequired is returned by Ask for an empty message.
var ErrMessageRequired = errors.New("message is required")

// Realtime event names.
const (
	EventMeetingStarted   = "meeting_started"
	EventMeetingCompleted = "meeting_completed"
	EventMeetingError     = "meeting_error"
	EventChatMessage      = "chat_message"
	EventChatCleared      = "chat_cleared"
	EventAuditStarted     = "audit_started"
	EventAuditCompleted   = "audit_completed"
	EventAuditError       = "audit_error"
)

// Broadcaster pushes an event to every realtime listener.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// ReportStore holds the latest report per meeting type.
type ReportStore interface {
	Get(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error)
	Save(ctx context.Context, r *models.MeetingReport) error
	Recent(ctx context.Context, limit int) ([]models.MeetingReport, error)
}

// ChatStore keeps the bounded chat history.
type ChatStore interface {
	AddChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ChatHistory(ctx context.Context) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context) error
}

// AuditStore persists audit reports.
type AuditStore interface {
	SaveAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AskResult is returned to the chat caller.
type AskResult struct {
	Response  string `json:"response"`
	AgentName string `json:"agentName"`
	AgentID   string `json:"agentId"`
	MessageID string `json:"messageId"`
}

// AuditResult is returned to the audit caller.
type AuditResult struct {
	Report    string    `json:"report"`
	Timestamp time.Time `json:"timestamp"`
}

// Service wires generation to persistence and realtime delivery.
type Service struct {
	gen     *Generator
	reports ReportStore
	chat    ChatStore
	audits  AuditStore
	hub     Broadcaster
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewService creates a boardroom service.
func NewService(gen *Generator, reports ReportStore, chat ChatStore, audits AuditStore, hub Broadcaster, logger zerolog.Logger) *Service {
	return &Service{
		gen:     gen,
		reports: reports,
		chat:    chat,
		audits:  audits,
		hub:     hub,
		logger:  logger.With().Str("component", "boardroom").Logger(),
	}
}

// GetMeeting returns the stored report for t, generating and saving one on a
// miss. Concurrent misses for the same type share one generation.
func (s *Service) GetMeeting(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	report, err := s.reports.Get(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load %s report: %w", t, err)
	}
	if report != nil {
		return report, nil
	}

	v, err, shared := s.group.Do(string(t), func() (any, error) {
		// Detach from the first caller so its cancellation doesn't fail the
		// other waiters.
		return s.generateAndSave(context.WithoutCancel(ctx), t)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("type", string(t)).Msg("Coalesced report generation")
	}
	return v.(*models.MeetingReport), nil
}

// RunMeeting forces a new report for t and announces its lifecycle.
func (s *Service) RunMeeting(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	s.hub.Broadcast(EventMeetingStarted, map[string]any{
		"type":    t,
		"message": fmt.Sprintf("%s meeting in progress...", capitalize(string(t))),
	})

	report, err := s.generateAndSave(ctx, t)
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(t)).Msg("Meeting run failed")
		s.hub.Broadcast(EventMeetingError, map[string]any{
			"type":  t,
			"error": "Meeting generation failed",
		})
		return nil, err
	}

	s.hub.Broadcast(EventMeetingCompleted, map[string]any{
		"type":   t,
		"report": report,
	})
	return report, nil
}

func (s *Service) generateAndSave(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	start := time.Now()
	report, err := s.gen.Generate(ctx, t)
	metrics.GenerationDuration.WithLabelValues("meeting").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MeetingsGenerated.WithLabelValues(string(t), "error").Inc()
		return nil, err
	}
	if err := s.reports.Save(ctx, report); err != nil {
		metrics.MeetingsGenerated.WithLabelValues(string(t), "error").Inc()
		return nil, fmt.Errorf("save %s report: %w", t, err)
	}
	metrics.MeetingsGenerated.WithLabelValues(string(t), "ok").Inc()

	s.logger.Info().
		Str("type", string(t)).
		Str("report_id", report.ID).
		Int("contributions", len(report.AgentContributions)).
		Int("action_items", len(report.ActionItems)).
		Dur("took", time.Since(start)).
		Msg("Meeting report generated")
	return report, nil
}

// RecentMeetings lists the latest reports across every type, newest first.
func (s *Service) RecentMeetings(ctx context.Context, limit int) ([]models.MeetingReport, error) {
	return s.reports.Recent(ctx, limit)
}

// Ask records the user's message, has a random agent answer it and records
// the answer. Both turns are broadcast as they are stored.
func (s *Service) Ask(ctx context.Context, message string) (*AskResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}

	userMsg := &models.ChatMessage{
		ID:        crypto.NewID(),
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := s.chat.AddChatMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}
	s.hub.Broadcast(EventChatMessage, userMsg)
	metrics.ChatMessages.WithLabelValues(string(models.RoleUser)).Inc()

	start := time.Now()
	reply, err := s.gen.AskAgent(ctx, message)
	metrics.GenerationDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	assistantMsg := &models.ChatMessage{
		ID:        crypto.NewID(),
		Role:      models.RoleAssistant,
		Content:   reply.Response,
		Timestamp: time.Now().UTC(),
		AgentID:   reply.Agent.ID,
		AgentName: reply.Agent.Name,
	}
	if err := s.chat.AddChatMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}
	s.hub.Broadcast(EventChatMessage, assistantMsg)
	metrics.ChatMessages.WithLabelValues(string(models.RoleAssistant)).Inc()

	return &AskResult{
		Response:  reply.Response,
		AgentName: reply.Agent.Name,
		AgentID:   reply.Agent.ID,
		MessageID: assistantMsg.ID,
	}, nil
}

// ChatHistory returns the stored chat, oldest first.
func (s *Service) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	return s.chat.ChatHistory(ctx)
}

// ClearChat deletes the chat history and tells listeners.
func (s *Service) ClearChat(ctx context.Context) error {
	if err := s.chat.ClearChat(ctx); err != nil {
		return err
	}
	s.hub.Broadcast(EventChatCleared, map[string]any{"message": "Chat history cleared"})
	return nil
}

// RunAudit produces and stores a security audit.
func (s *Service) RunAudit(ctx context.Context) (*AuditResult, error) {
	s.hub.Broadcast(EventAuditStarted, map[string]any{"message": "Security audit in progress..."})

	start := time.Now()
	report, err := s.gen.RunAudit(ctx)
	metrics.GenerationDuration.WithLabelValues("audit").Observe(time.Since(start).Seconds())
	if err == nil {
		err = s.audits.SaveAuditLog(ctx, &models.AuditLog{
			ID:        crypto.NewSortableID(),
			Report:    report,
			Severity:  models.SeverityInfo,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			err = fmt.Errorf("store audit: %w", err)
		}
	}
	if err != nil {
		metrics.Audits.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("Audit failed")
		s.hub.Broadcast(EventAuditError, map[string]any{"error": "Audit failed"})
		return nil, err
	}

	metrics.Audits.WithLabelValues("ok").Inc()
	s.hub.Broadcast(EventAuditCompleted, map[string]any{"report": report})
	return &AuditResult{Report: report, Timestamp: time.Now().UTC()}, nil
}

// AuditLogs lists stored audits, newest first.
func (s *Service) AuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return s.audits.ListAuditLogs(ctx, limit)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
