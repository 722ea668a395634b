package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/application/services"
	"minicourse-backend/interfaces/lambda/pipeline"
)

// QuestionHandler serves send_question.
type QuestionHandler struct {
	service *services.QuestionService
	logger  *zap.Logger
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(service *services.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{service: service, logger: orNop(logger)}
}

// Send handles POST /question. The sender is the username the preprocessor
// put into the headers.
func (h *QuestionHandler) Send(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var req services.QuestionRequest
	if err := event.Bind(&req); err != nil {
		return respond(h.logger, "send_question", nil, err)
	}
	sent, err := h.service.Send(ctx, event.Username(), req)
	return respond(h.logger, "send_question", sent, err)
}
