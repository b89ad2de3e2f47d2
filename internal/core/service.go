package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mikey/llm-notify-gateway/internal/trusted"
	"github.com/mikey/llm-notify-gateway/internal/utils"
	"go.uber.org/zap"
)

const serviceName = "llm-notify-gateway"

// fallbackSummaryMax caps the summary derived from the raw message when the
// classifier returned none.
const fallbackSummaryMax = 100

// GatewayService coordinates the per-message workflow: remember, classify,
// maybe notify, reply. Each stage's failure is isolated so later stages still
// run with degraded output.
type GatewayService struct {
	store           MemoryRepository
	classifier      *ClassifierGateway
	dispatcher      *NotificationDispatcher
	trusted         *trusted.Checker
	textProc        *utils.TextProcessor
	logger          *zap.Logger
	memoryContext   int
	responseContext int
}

// NewGatewayService creates a new gateway service
func NewGatewayService(
	store MemoryRepository,
	classifier *ClassifierGateway,
	dispatcher *NotificationDispatcher,
	trustedChecker *trusted.Checker,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	memoryContext int,
	responseContext int,
) *GatewayService {
	if memoryContext <= 0 {
		memoryContext = 20
	}
	if responseContext <= 0 {
		responseContext = 10
	}

	return &GatewayService{
		store:           store,
		classifier:      classifier,
		dispatcher:      dispatcher,
		trusted:         trustedChecker,
		textProc:        textProc,
		logger:          logger,
		memoryContext:   memoryContext,
		responseContext: responseContext,
	}
}

// ProcessMessage runs the workflow for one inbound message. Empty text is
// rejected with ErrEmptyMessage and a failed memory append is fatal for the
// operation; every later stage degrades instead of aborting. Messages from a
// trusted source are remembered and nothing else.
func (s *GatewayService) ProcessMessage(ctx context.Context, text, source string) (*WorkflowResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	logger := s.logger.With(zap.String("processing_id", uuid.New().String()))

	if _, err := s.store.AppendMemory(ctx, text, source); err != nil {
		return nil, fmt.Errorf("failed to remember message: %w", err)
	}

	if s.trusted.IsTrusted(source) {
		logger.Info("Trusted source, skipping classification", zap.String("source", source))
		return &WorkflowResult{
			Remembered: true,
			Classification: &ClassificationResult{
				Notify: false,
				Reason: fmt.Sprintf("self-sent (%s)", source),
			},
		}, nil
	}

	result := &WorkflowResult{Remembered: true}
	result.Classification = s.classify(ctx, text, logger)

	if result.Classification.Notify && s.dispatcher.CanSend() {
		summary := result.Classification.Summary
		if summary == "" {
			summary = s.textProc.Preview(text, fallbackSummaryMax)
		}
		sendResult, err := s.dispatcher.Send(ctx, summary, text)
		if err != nil {
			logger.Error("Notification dispatch failed", zap.Error(err))
		} else {
			result.NotificationSent = sendResult.Sent
		}
	}

	reply, err := s.chatReply(ctx, text)
	if err != nil {
		logger.Error("Chat reply failed", zap.Error(err))
	} else {
		result.Reply = reply
	}

	return result, nil
}

// classify gathers context and invokes the classifier gateway. Any failure is
// converted into the fail-safe notify=false result so the workflow continues.
func (s *GatewayService) classify(ctx context.Context, text string, logger *zap.Logger) *ClassificationResult {
	memories, err := s.store.RecentMemories(ctx, s.memoryContext)
	if err != nil {
		logger.Error("Failed to load memory context", zap.Error(err))
		return errClassification(err)
	}

	responses, err := s.store.RecentResponses(ctx, s.responseContext)
	if err != nil {
		logger.Error("Failed to load response context", zap.Error(err))
		return errClassification(err)
	}

	rules, err := s.store.Rules(ctx)
	if err != nil {
		logger.Error("Failed to load rules document", zap.Error(err))
		return errClassification(err)
	}

	result, err := s.classifier.Classify(ctx, text, memories, responses, rules)
	if err != nil {
		logger.Error("Classification failed", zap.Error(err))
		return errClassification(err)
	}
	return result
}

func errClassification(err error) *ClassificationResult {
	return &ClassificationResult{Notify: false, Reason: fmt.Sprintf("error: %v", err)}
}

// chatReply generates the conversational reply from memory context only.
func (s *GatewayService) chatReply(ctx context.Context, text string) (string, error) {
	memories, err := s.store.RecentMemories(ctx, s.memoryContext)
	if err != nil {
		return "", err
	}
	return s.classifier.ChatReply(ctx, text, memories)
}

// Forget removes every memory whose text contains query.
func (s *GatewayService) Forget(ctx context.Context, query string) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}
	return s.store.Forget(ctx, query)
}

// Memories returns a most-recent-first page of the memory log.
func (s *GatewayService) Memories(ctx context.Context, limit, offset int) (*MemoryPage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.store.AllMemories(ctx)
	if err != nil {
		return nil, err
	}

	total := len(all)
	reversed := make([]MemoryEntry, 0, total)
	for i := total - 1; i >= 0; i-- {
		reversed = append(reversed, all[i])
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &MemoryPage{
		Total:    total,
		Offset:   offset,
		Limit:    limit,
		Memories: reversed[start:end],
	}, nil
}

// Health reports store counts and current notification eligibility.
func (s *GatewayService) Health(ctx context.Context) (*HealthStatus, error) {
	memories, err := s.store.MemoryCount(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ResponseCount(ctx)
	if err != nil {
		return nil, err
	}

	return &HealthStatus{
		Status:             "ok",
		Service:            serviceName,
		Memories:           memories,
		Responses:          responses,
		NotificationsToday: s.dispatcher.NotificationsToday(),
		MaxNotifications:   s.dispatcher.MaxPerDay(),
		CanNotify:          s.dispatcher.CanSend(),
	}, nil
}
