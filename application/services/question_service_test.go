package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minicourse-backend/infrastructure/email"
	appErrors "minicourse-backend/pkg/errors"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendHTML(ctx context.Context, source string, to []string, subject, html string) (string, error) {
	args := m.Called(source, to, subject, html)
	return args.String(0), args.Error(1)
}

func (m *mockMailer) VerifyAddress(ctx context.Context, address string) error {
	return m.Called(address).Error(0)
}

func TestQuestionService_Send(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("SendHTML",
		"student@example.com",
		[]string{"expert@example.com"},
		"New message from student student@example.com",
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "How do goroutines work?") }),
	).Return("msg-1", nil)

	sent, err := NewQuestionService(mailer, nil).Send(context.Background(), "student@example.com", QuestionRequest{
		ExpertEmail: "expert@example.com",
		Message:     "How do goroutines work?",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", sent.MessageID)
	mailer.AssertExpectations(t)
}

func TestQuestionService_SendAnonymous(t *testing.T) {
	mailer := new(mockMailer)

	_, err := NewQuestionService(mailer, nil).Send(context.Background(), "", QuestionRequest{
		ExpertEmail: "expert@example.com", Message: "hi",
	})

	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeUnauthorized))
	mailer.AssertNotCalled(t, "SendHTML", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionService_SendFailure(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("SendHTML", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("MessageRejected"))

	_, err := NewQuestionService(mailer, nil).Send(context.Background(), "s@example.com", QuestionRequest{
		ExpertEmail: "expert@example.com", Message: "hi",
	})

	assert.Error(t, err)
}

func TestQuestionService_SendRequestsVerification(t *testing.T) {
	mailer := new(mockMailer)
	rejected := fmt.Errorf("%w: MessageRejected", email.ErrUnverifiedSource)
	mailer.On("SendHTML", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", rejected)
	mailer.On("VerifyAddress", "new@example.com").Return(nil).Once()

	_, err := NewQuestionService(mailer, nil).Send(context.Background(), "new@example.com", QuestionRequest{
		ExpertEmail: "expert@example.com", Message: "hi",
	})

	assert.ErrorIs(t, err, email.ErrUnverifiedSource)
	mailer.AssertExpectations(t)
}
