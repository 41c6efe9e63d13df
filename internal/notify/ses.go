package notify

import (
	"context"
	"fmt"

	"workflow-chat/internal/common/aws"
	"workflow-chat/internal/common/logger"
)

// EmailNotifier escalates over SES to a fixed operations address.
type EmailNotifier struct {
	client *aws.SESClient
	from   string
	to     string
	logger logger.Logger
}

func NewEmailNotifier(client *aws.SESClient, from, to string, log logger.Logger) *EmailNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &EmailNotifier{
		client: client,
		from:   from,
		to:     to,
		logger: log.WithFields(map[string]interface{}{"component": "email-notifier"}),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, subject, message string) error {
	if err := n.client.SendPlainText(ctx, n.from, n.to, subject, message); err != nil {
		return fmt.Errorf("%w: ses: %v", ErrNotificationSendFailed, err)
	}
	n.logger.Debug("escalation email sent", map[string]interface{}{
		"to":      n.to,
		"subject": subject,
	})
	return nil
}
