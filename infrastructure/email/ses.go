// Package email sends HTML mail through Amazon SES.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	appErrors "minicourse-backend/pkg/errors"
)

const charset = "UTF-8"

// ErrUnverifiedSource is wrapped by SendHTML when SES refuses the source
// address because it has not been verified.
var ErrUnverifiedSource = errors.New("source address is not verified")

// API is the subset of the SES client a Sender uses.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	VerifyEmailIdentity(ctx context.Context, params *ses.VerifyEmailIdentityInput, optFns ...func(*ses.Options)) (*ses.VerifyEmailIdentityOutput, error)
}

var _ API = (*ses.Client)(nil)

var messageTemplate = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html>
  <body>
    <p>You received a new message from a student:</p>
    <blockquote>{{.}}</blockquote>
  </body>
</html>
`))

// MessageHTML renders a student message into the HTML mail body.
// The message is escaped.
func MessageHTML(message string) (string, error) {
	var body bytes.Buffer
	if err := messageTemplate.Execute(&body, message); err != nil {
		return "", fmt.Errorf("failed to render message email: %w", err)
	}
	return body.String(), nil
}

// Sender sends mail from a fixed source address.
type Sender struct {
	client API
	logger *zap.Logger
}

// NewSender creates a sender.
func NewSender(client API, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{client: client, logger: logger}
}

// SendHTML mails html to every address in to, from source.
func (s *Sender) SendHTML(ctx context.Context, source string, to []string, subject, html string) (string, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String(charset), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String(charset), Data: aws.String(html)},
			},
		},
	})
	if err != nil {
		if unverifiedSource(err) {
			err = fmt.Errorf("%w: %v", ErrUnverifiedSource, err)
		}
		return "", appErrors.NewExternalError("ses", err).
			WithDetails(map[string]interface{}{"source": source})
	}

	messageID := aws.ToString(out.MessageId)
	s.logger.Info("Email sent",
		zap.String("source", source),
		zap.Strings("to", to),
		zap.String("message_id", messageID),
	)
	return messageID, nil
}

// VerifyAddress asks SES to send a verification mail to address so it can
// be used as a source.
func (s *Sender) VerifyAddress(ctx context.Context, address string) error {
	_, err := s.client.VerifyEmailIdentity(ctx, &ses.VerifyEmailIdentityInput{
		EmailAddress: aws.String(address),
	})
	if err != nil {
		return appErrors.NewExternalError("ses", err).
			WithDetails(map[string]interface{}{"address": address})
	}
	return nil
}

func unverifiedSource(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "MessageRejected" &&
		strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "not verified")
}
