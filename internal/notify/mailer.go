package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/logging"
)

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) Send(_ context.Context, email domain.Email) error {
	m.logger.Info("Email sent",
		zap.String("to", logging.Sanitize(email.To)),
		zap.String("subject", logging.Sanitize(email.Subject)),
	)
	return nil
}
