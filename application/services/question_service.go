package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"minicourse-backend/application/ports"
	"minicourse-backend/infrastructure/email"
	appErrors "minicourse-backend/pkg/errors"
)

// QuestionSubject is formatted with the sending student's username.
const QuestionSubject = "New message from student %s"

// QuestionRequest is the body of a send-question call.
type QuestionRequest struct {
	ExpertEmail string `json:"expert_email" validate:"required,email"`
	Message     string `json:"message" validate:"required"`
}

// SentQuestion is returned by Send.
type SentQuestion struct {
	MessageID string `json:"message_id"`
}

// QuestionService mails student questions to experts.
type QuestionService struct {
	mailer ports.Mailer
	logger *zap.Logger
}

// NewQuestionService creates the service.
func NewQuestionService(mailer ports.Mailer, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{mailer: mailer, logger: logger}
}

// Send mails the question from the student's own address, which is their
// username, to the expert.
func (s *QuestionService) Send(ctx context.Context, username string, req QuestionRequest) (*SentQuestion, error) {
	if username == "" {
		return nil, appErrors.NewUnauthorizedError("a question needs an identified student")
	}

	html, err := email.MessageHTML(req.Message)
	if err != nil {
		return nil, err
	}

	id, err := s.mailer.SendHTML(ctx, username, []string{req.ExpertEmail}, fmt.Sprintf(QuestionSubject, username), html)
	if errors.Is(err, email.ErrUnverifiedSource) {
		s.requestVerification(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Message sent", zap.String("from", username), zap.String("to", req.ExpertEmail))
	return &SentQuestion{MessageID: id}, nil
}

// requestVerification lets a student whose address SES does not accept yet
// confirm it, so that a later question goes through.
func (s *QuestionService) requestVerification(ctx context.Context, username string) {
	if err := s.mailer.VerifyAddress(ctx, username); err != nil {
		s.logger.Warn("Could not request address verification", zap.String("address", username), zap.Error(err))
		return
	}
	s.logger.Info("Address verification requested", zap.String("address", username))
}
