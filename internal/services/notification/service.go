package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is an operator-facing notification.
type Message struct {
	Channel   string `json:"channel"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Reference string `json:"reference"`
}

// Service is a minimal notification service implementation: it writes
// messages to the structured log, where the ops alerting pipeline picks them up.
type Service struct {
	logger *logrus.Logger
}

// NewService creates a new notification service.
func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{logger: logger}
}

// Send logs the message.
func (s *Service) Send(ctx context.Context, msg Message) error {
	s.logger.WithFields(logrus.Fields{
		"channel":   msg.Channel,
		"reference": msg.Reference,
		"subject":   msg.Subject,
	}).Info(msg.Body)
	return nil
}
