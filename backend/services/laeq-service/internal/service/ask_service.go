package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/models"
)

// AIClient forwards a question to the LLM workflow.
type AIClient interface {
	Ask(ctx context.Context, payload models.AskPayload) (json.RawMessage, error)
}

// AskService answers natural-language questions about a location's noise exposure.
type AskService struct {
	laeq   *LAeqService
	ai     AIClient
	logger *zap.Logger
}

// NewAskService returns service. ai may be nil, in which case Ask reports ErrAIDisabled.
func NewAskService(laeqSvc *LAeqService, ai AIClient, logger *zap.Logger) *AskService {
	return &AskService{laeq: laeqSvc, ai: ai, logger: logger}
}

// Ask computes the location's report and sends it with the question to the workflow. A
// window without data is still forwarded, with a note in place of the report.
func (s *AskService) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	if s.ai == nil {
		return nil, models.ErrAIDisabled
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", models.ErrInvalidRequest)
	}

	payload := models.AskPayload{SessionID: strings.TrimSpace(req.SessionID), ChatInput: question}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	report, err := s.laeq.Compute(ctx, req.LAeqRequest)
	switch {
	case err == nil:
		payload.Context = report
	case errors.Is(err, laeq.ErrNoData), errors.Is(err, models.ErrCellNotFound):
		payload.Note = err.Error()
	default:
		return nil, err
	}

	body, err := s.ai.Ask(ctx, payload)
	if err != nil {
		s.logger.Warn("ai request failed", zap.String("session_id", payload.SessionID), zap.Error(err))
		return nil, err
	}
	return &models.AskResponse{SessionID: payload.SessionID, Body: body}, nil
}
